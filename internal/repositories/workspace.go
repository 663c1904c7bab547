package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/stagelist/internal/models"
)

// WorkspaceRepository persists the list being edited and the metronome settings under individual keys.
type WorkspaceRepository struct {
	store *LocalStore
}

// NewWorkspaceRepository creates a WorkspaceRepository.
func NewWorkspaceRepository(store *LocalStore) *WorkspaceRepository {
	return &WorkspaceRepository{store: store}
}

// Load reads the workspace. Keys that were never written fall back to the first-run seed;
// fresh reports whether no songs had been stored.
func (r *WorkspaceRepository) Load(ctx context.Context) (ws *models.Workspace, fresh bool, err error) {
	ws = &models.Workspace{
		ListID: models.DefaultListID,
		Title:  models.DefaultTitle,
	}

	found, err := r.store.getOr(ctx, KeySongs, &ws.Songs)
	if err != nil {
		return nil, false, err
	}
	if !found {
		ws.Songs = models.SeedSongs()
	}

	hasNext, err := r.store.getOr(ctx, KeyNextID, &ws.NextID)
	if err != nil {
		return nil, false, err
	}
	if !hasNext || ws.NextID < 1 {
		ws.NextID = nextFree(ws.Songs)
	}

	if _, err := r.store.getOr(ctx, KeyTitle, &ws.Title); err != nil {
		return nil, false, err
	}
	if _, err := r.store.getOr(ctx, KeyCurrentListID, &ws.ListID); err != nil {
		return nil, false, err
	}

	if ws.Settings, err = r.LoadSettings(ctx); err != nil {
		return nil, false, err
	}
	return ws, !found, nil
}

// Save writes every workspace key in one transaction.
func (r *WorkspaceRepository) Save(ctx context.Context, ws *models.Workspace) error {
	songs := ws.Songs
	if songs == nil {
		songs = []models.Song{}
	}

	err := r.store.SetMany(ctx, map[string]any{
		KeySongs:         songs,
		KeyNextID:        ws.NextID,
		KeyTitle:         ws.Title,
		KeyCurrentListID: ws.ListID,
		KeySound:         ws.Settings.MetronomeSound,
		KeyVolume:        ws.Settings.MetronomeVolume,
	})
	if err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}

// LoadSettings reads the metronome settings. Absent keys take the defaults; a stored volume of 0 is kept.
func (r *WorkspaceRepository) LoadSettings(ctx context.Context) (models.Settings, error) {
	s := models.DefaultSettings()
	if _, err := r.store.getOr(ctx, KeySound, &s.MetronomeSound); err != nil {
		return s, err
	}
	if _, err := r.store.getOr(ctx, KeyVolume, &s.MetronomeVolume); err != nil {
		return s, err
	}
	return s, nil
}

// SaveSettings writes both settings keys.
func (r *WorkspaceRepository) SaveSettings(ctx context.Context, s models.Settings) error {
	return r.store.SetMany(ctx, map[string]any{
		KeySound:  s.MetronomeSound,
		KeyVolume: s.MetronomeVolume,
	})
}

func nextFree(songs []models.Song) int {
	next := 1
	for _, s := range songs {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}
