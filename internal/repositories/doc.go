// Package repositories implements SQLite persistence for the client.
//
// All state lives in a single kv table of JSON values, keyed the same way the browser client
// keys localStorage. Typed repositories sit on top of [LocalStore]:
//   - [WorkspaceRepository] : the list being edited plus metronome settings
//   - [StageListRepository] : the saved-lists collection, a models.Repository[*models.StageList]
//   - [AuthRepository] : persisted session token and remember-me entry
//   - [SyncLogRepository] : outcomes of background sync jobs (sync_log table)
//
// Local storage is the source of truth; remote mirroring happens elsewhere.
package repositories
