// package services defines clients for the stage list backend
package services

import (
	"context"

	"github.com/desertthunder/stagelist/internal/models"
)

// Remote is the cloud CRUD surface mirrored by the sync layer.
type Remote interface {
	// Health checks that the backend is reachable.
	Health(ctx context.Context) error

	// ListAll returns every stage list stored for the signed-in user.
	ListAll(ctx context.Context) ([]*models.StageList, error)

	// Create stores a new list, overwriting any list with the same id.
	Create(ctx context.Context, list *models.StageList) (*models.StageList, error)

	// Update merges patch into an existing list.
	Update(ctx context.Context, id string, patch models.ListPatch) (*models.StageList, error)

	// Upsert updates the list, creating it when the backend does not have it.
	Upsert(ctx context.Context, list *models.StageList) (*models.StageList, error)

	// Delete removes a list.
	Delete(ctx context.Context, id string) error

	// GetSettings returns the user's metronome settings.
	GetSettings(ctx context.Context) (models.Settings, error)

	// UpdateSettings writes the fields present in patch.
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
}

// SessionStore persists the signed-in session and remember-me entry.
//
// Implemented by repositories.AuthRepository.
type SessionStore interface {
	LoadSession(ctx context.Context) (*models.AuthSession, error)
	SaveSession(ctx context.Context, s *models.AuthSession) error
	ClearSession(ctx context.Context) error
	LoadRememberMe(ctx context.Context) (*models.RememberMe, error)
	SaveRememberMe(ctx context.Context, m *models.RememberMe) error
	ClearRememberMe(ctx context.Context) error
}
