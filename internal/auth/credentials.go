package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/xswkr/chartpattern-backend/internal/models"
	"github.com/xswkr/chartpattern-backend/internal/store"
	"github.com/xswkr/chartpattern-backend/pkg/utils"
)

// UserStore is what the auth services need from user persistence.
// Implemented by store.UserStore.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error)
	AttachOAuth(ctx context.Context, id uuid.UUID, provider, oauthID, name, picture string) error
	RefreshProfile(ctx context.Context, id uuid.UUID, name, picture string) error
}

// Credentials handles local username/password accounts. Passwords are
// Argon2id-hashed before storage; nothing here ever sees or keeps plaintext
// past the call boundary.
type Credentials struct {
	users  UserStore
	params utils.Argon2Params
}

func NewCredentials(users UserStore, params utils.Argon2Params) *Credentials {
	return &Credentials{users: users, params: params}
}

// Register creates a local account. Returns ErrUsernameTaken when the
// username exists, including when a concurrent register wins the insert.
func (c *Credentials) Register(ctx context.Context, username, password, name string) (uuid.UUID, error) {
	username = utils.NormalizeUsername(username)
	if err := utils.ValidateUsername(username); err != nil {
		return uuid.Nil, err
	}

	hash, err := utils.HashPassword(password, c.params)
	if err != nil {
		return uuid.Nil, err
	}

	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Name:         name,
	}
	if err := c.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return uuid.Nil, ErrUsernameTaken
		}
		return uuid.Nil, err
	}
	return u.ID, nil
}

// Login verifies a local credential. OAuth-only accounts (no password hash)
// fail the same way as a wrong password.
func (c *Credentials) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := c.users.GetByUsername(ctx, utils.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
