// Package tasks moves stage lists between local storage and the cloud with real-time progress reporting.
//
// # Reconciliation
//
// [SyncEngine.Reconcile] is the initial cloud load run after sign-in:
//
//  1. Probe the backend health endpoint (3s budget)
//  2. Fetch cloud lists and settings
//  3. Empty cloud with local lists: upload every list and the settings ([Migrated])
//  4. Cloud has lists: replace the local collection and settings ([Adopted])
//
// Any failure yields [LocalOnly] and leaves local data untouched.
//
// # Background Sync
//
// [Scheduler] debounces remote mirroring. Each mutation calls [Scheduler.Notify] with a key
// ("list:<id>", "settings", ...) and a [Job]; a burst of notifications for one key runs only the
// latest job once the key has been quiet for the configured delay. Job errors are logged and passed
// to an optional [Recorder], never surfaced to the caller. [Scheduler.Flush] drains pending work on
// exit and [Scheduler.Close] cancels timers and waits for running jobs.
//
// # Progress Reporting
//
// Long operations take an optional channel of [ProgressUpdate]. Sends use select with default so a
// slow or absent consumer never blocks the operation.
//
// # Bulk Export
//
// [SyncEngine.BulkExport] writes saved lists through a rate-limited worker pool and finishes with an
// export_manifest.json summary.
package tasks
