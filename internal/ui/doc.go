// Package ui implements the interactive stage list editor using bubbletea's Elm architecture.
//
// The (view) [Model] renders the current list as numbered rows with a color bar, tempo, lock and playing
// markers, and routes every edit through a [stage.Session] so the terminal and the CLI share one source of truth.
// Modes:
//  1. browse : move the cursor, reorder, toggle playback and settings
//  2. form : add or edit a song, or rename the list, with [textinput] fields
//  3. confirm : confirm a song deletion
//
// Metronome pulses reach the view through a buffered channel fed by [PulseHook]; the hook never blocks the
// engine, so a slow render only drops beat flashes.
//
// Rows can be reordered with the mouse: a press starts a drag and motion over another row commits a move
// through [setlist.ComputeTargetIndex]. Rows are one terminal cell tall and motion reports whole cells, so
// the pointer always lands on a row's midpoint and the move commits as soon as it enters an adjacent row.
// The midpoint hysteresis only matters to front ends with sub-row pointer precision.
package ui
