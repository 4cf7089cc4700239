package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/xswkr/chartpattern-backend/internal/models"
	"github.com/xswkr/chartpattern-backend/internal/store"
	"github.com/xswkr/chartpattern-backend/pkg/utils"
)

// Identity maps verified OAuth profiles to durable user records. Callers
// only invoke ResolveOAuth after the provider exchange and profile fetch
// succeeded, so resolution never leaves partial records behind.
type Identity struct {
	users UserStore
}

func NewIdentity(users UserStore) *Identity {
	return &Identity{users: users}
}

// ResolveOAuth finds or creates the user for a verified provider profile.
//
// A local-credential account with the same email is upgraded in place: the
// provider identity is attached and the account keeps its id and password
// hash, so both login paths work from then on. An already-linked account
// just gets its display fields refreshed.
//
// Two near-simultaneous first-time logins can both see "no existing user";
// the storage uniqueness constraints make the losing insert fail with
// ErrDuplicate, and we retry the lookup instead of surfacing the conflict.
func (r *Identity) ResolveOAuth(ctx context.Context, provider, oauthID, email, name, picture string) (*models.User, error) {
	for attempt := 0; ; attempt++ {
		u, err := r.lookup(ctx, provider, oauthID, email)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		if u == nil {
			created, err := r.create(ctx, provider, oauthID, email, name, picture)
			if errors.Is(err, store.ErrDuplicate) && attempt == 0 {
				// Lost the race; the row exists now.
				continue
			}
			return created, err
		}

		if !u.HasProvider() {
			if err := r.users.AttachOAuth(ctx, u.ID, provider, oauthID, name, picture); err != nil {
				if errors.Is(err, store.ErrDuplicate) && attempt == 0 {
					continue
				}
				return nil, err
			}
			return r.users.GetByID(ctx, u.ID)
		}

		// Existing linked account: a login, not a re-creation.
		if err := r.users.RefreshProfile(ctx, u.ID, name, picture); err != nil {
			return nil, err
		}
		return r.users.GetByID(ctx, u.ID)
	}
}

func (r *Identity) lookup(ctx context.Context, provider, oauthID, email string) (*models.User, error) {
	u, err := r.users.GetByOAuth(ctx, provider, oauthID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if email == "" {
		return nil, store.ErrNotFound
	}
	return r.users.GetByUsername(ctx, utils.NormalizeUsername(email))
}

func (r *Identity) create(ctx context.Context, provider, oauthID, email, name, picture string) (*models.User, error) {
	username := utils.NormalizeUsername(email)
	if username == "" {
		username = provider + ":" + oauthID
	}

	u := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Name:           name,
		Provider:       provider,
		OAuthID:        oauthID,
		ProfilePicture: picture,
	}
	if err := r.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
