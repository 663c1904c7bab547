// Package setlist is the in-memory core of a stage list.
//
// [List] keeps the ordered songs and the id counter. Add, Edit, Delete, Move and ToggleLock are total:
// an unknown id or an out-of-range index is a no-op that returns false. After every structural change
// song numbers are rewritten to 1..N in order; ids are assigned from the counter and never reused.
//
// [Selection] tracks the single active song. Locked songs ignore play clicks.
//
// [ComputeTargetIndex] is the pure midpoint-crossing rule used by drag gestures to decide when a hover
// turns into a [List.Move].
package setlist
