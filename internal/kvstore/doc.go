// Package kvstore is the backend's key-value storage.
//
// The REST server only needs get, set, delete and prefix listing over JSON documents, so any
// of the drivers below can hold its data:
//   - [Memory] : process-local map, for tests and development
//   - [SQLite] : the kv table of the embedded migrations
//   - [Postgres] : a kv_store(key, value JSONB) table through pgx
//   - [Redis] : plain string keys, prefix listing via SCAN
//   - [S3] : one object per key under a bucket prefix
//
// [Open] picks the driver named in the [store] config section.
package kvstore
