package setlist

import "github.com/desertthunder/stagelist/internal/models"

// Selection tracks the active song. It holds at most one id.
type Selection struct {
	id     int
	active bool
}

// Toggle applies a play click on s: a locked song is ignored, clicking the active song
// deactivates it and clicking any other song makes it the only active one.
// It reports whether the selection changed.
func (sel *Selection) Toggle(s models.Song) bool {
	if s.Locked {
		return false
	}
	if sel.active && sel.id == s.ID {
		sel.Clear()
		return true
	}
	sel.id, sel.active = s.ID, true
	return true
}

// Active returns the active song id.
func (sel *Selection) Active() (int, bool) {
	return sel.id, sel.active
}

// IsActive reports whether id is the active song.
func (sel *Selection) IsActive(id int) bool {
	return sel.active && sel.id == id
}

// Remove clears the selection when id is active.
func (sel *Selection) Remove(id int) bool {
	if !sel.IsActive(id) {
		return false
	}
	sel.Clear()
	return true
}

// Clear empties the selection.
func (sel *Selection) Clear() {
	sel.id, sel.active = 0, false
}
