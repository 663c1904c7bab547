// Package stage owns the application session: the list being edited, the active song,
// the metronome settings and the saved-lists collection.
//
// A [Session] is the only writer of editing state. Each mutation validates its input, updates the
// in-memory list, persists the workspace keys and the current list's saved entry, and finally hands a
// snapshot to the [tasks.Scheduler] for debounced cloud mirroring. The display title doubles as the
// current list's saved name, so renaming, saving and loading keep the two in step.
//
// Playback follows the selection: the metronome runs while a song is active, the session is not muted
// and no cloud load is in progress. Editing the active song's tempo restarts the pulse train; deleting
// the active song or switching lists stops it.
//
// [Session.OnSessionChanged] reacts to sign-in and sign-out without a restart.
// [Session.WatchAuth] wires it to a [services.AuthService].
package stage
