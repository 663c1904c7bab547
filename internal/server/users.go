package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/stagelist/internal/kvstore"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStore keeps accounts in the key-value store under users:email:{email} and users:id:{id}.
type UserStore struct {
	kv   kvstore.Store
	cost int
}

// NewUserStore creates a UserStore over kv.
func NewUserStore(kv kvstore.Store) *UserStore {
	return &UserStore{kv: kv, cost: bcrypt.DefaultCost}
}

func emailKey(email string) string { return "users:email:" + normalizeEmail(email) }

func idKey(id string) string { return "users:id:" + id }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes password and stores a new account. An existing email yields [shared.ErrUserExists].
func (u *UserStore) Create(ctx context.Context, email, password, name string) (models.User, error) {
	if _, err := u.ByEmail(ctx, email); err == nil {
		return models.User{}, shared.ErrUserExists
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           shared.GenerateID(),
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return models.User{}, err
	}
	if err := u.kv.Set(ctx, emailKey(user.Email), data); err != nil {
		return models.User{}, fmt.Errorf("failed to store user: %w", err)
	}
	index, err := json.Marshal(user.Email)
	if err != nil {
		return models.User{}, err
	}
	if err := u.kv.Set(ctx, idKey(user.ID), index); err != nil {
		return models.User{}, fmt.Errorf("failed to index user: %w", err)
	}
	return user, nil
}

// ByEmail loads the account for email.
func (u *UserStore) ByEmail(ctx context.Context, email string) (models.User, error) {
	data, err := u.kv.Get(ctx, emailKey(email))
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return models.User{}, fmt.Errorf("corrupt user record: %w", err)
	}
	return user, nil
}

// ByID loads the account with id through the id index.
func (u *UserStore) ByID(ctx context.Context, id string) (models.User, error) {
	data, err := u.kv.Get(ctx, idKey(id))
	if err != nil {
		return models.User{}, err
	}
	var email string
	if err := json.Unmarshal(data, &email); err != nil {
		return models.User{}, fmt.Errorf("corrupt user index: %w", err)
	}
	return u.ByEmail(ctx, email)
}

// Authenticate returns the account when password matches. Unknown emails and wrong passwords both
// yield [shared.ErrAuthFailed].
func (u *UserStore) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := u.ByEmail(ctx, email)
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.User{}, shared.ErrAuthFailed
	} else if err != nil {
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, shared.ErrAuthFailed
	}
	return user, nil
}
