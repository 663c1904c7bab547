package setlist

import (
	"testing"

	"github.com/desertthunder/stagelist/internal/models"
)

func TestSelection(t *testing.T) {
	x := models.Song{ID: 1, Title: "X"}
	y := models.Song{ID: 2, Title: "Y"}
	locked := models.Song{ID: 3, Title: "L", Locked: true}

	t.Run("activating another song replaces the active one", func(t *testing.T) {
		var sel Selection
		sel.Toggle(y)
		sel.Toggle(x)

		id, ok := sel.Active()
		if !ok || id != 1 {
			t.Errorf("expected only X active, got %d/%v", id, ok)
		}
		if sel.IsActive(2) {
			t.Error("Y should no longer be active")
		}
	})

	t.Run("clicking the active song deactivates it", func(t *testing.T) {
		var sel Selection
		sel.Toggle(x)
		sel.Toggle(x)
		if _, ok := sel.Active(); ok {
			t.Error("expected empty selection")
		}
	})

	t.Run("locked songs ignore clicks", func(t *testing.T) {
		var sel Selection
		if sel.Toggle(locked) {
			t.Error("locked song should not change selection")
		}

		sel.Toggle(x)
		sel.Toggle(locked)
		if !sel.IsActive(1) {
			t.Error("clicking a locked song must not stop the active one")
		}
	})

	t.Run("Remove clears only the active id", func(t *testing.T) {
		var sel Selection
		sel.Toggle(x)

		if sel.Remove(2) {
			t.Error("removing an inactive id should be a no-op")
		}
		if !sel.Remove(1) {
			t.Error("removing the active id should clear")
		}
		if _, ok := sel.Active(); ok {
			t.Error("expected empty selection")
		}
	})
}
