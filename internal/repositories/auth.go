package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
)

// AuthRepository persists the signed-in session and the remembered identity.
type AuthRepository struct {
	store *LocalStore
}

// NewAuthRepository creates an AuthRepository.
func NewAuthRepository(store *LocalStore) *AuthRepository {
	return &AuthRepository{store: store}
}

// LoadSession returns the persisted session or [shared.ErrNotAuthenticated].
func (r *AuthRepository) LoadSession(ctx context.Context) (*models.AuthSession, error) {
	var s models.AuthSession
	if err := r.store.Get(ctx, KeyAuthSession, &s); err != nil {
		if errors.Is(err, shared.ErrKeyNotFound) {
			return nil, shared.ErrNotAuthenticated
		}
		return nil, err
	}
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &s, nil
}

func (r *AuthRepository) SaveSession(ctx context.Context, s *models.AuthSession) error {
	if err := r.store.Set(ctx, KeyAuthSession, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *AuthRepository) ClearSession(ctx context.Context) error {
	return r.store.Delete(ctx, KeyAuthSession)
}

// LoadRememberMe returns the remembered identity, or nil when none is stored.
func (r *AuthRepository) LoadRememberMe(ctx context.Context) (*models.RememberMe, error) {
	var m models.RememberMe
	found, err := r.store.getOr(ctx, KeyRememberMe, &m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (r *AuthRepository) SaveRememberMe(ctx context.Context, m *models.RememberMe) error {
	return r.store.Set(ctx, KeyRememberMe, m)
}

func (r *AuthRepository) ClearRememberMe(ctx context.Context) error {
	return r.store.Delete(ctx, KeyRememberMe)
}
