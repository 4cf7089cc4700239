package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// SessionDuration is 30 days.
const SessionDuration = 30 * 24 * time.Hour

// Anonymous is the caller id of a request with no valid session.
var Anonymous = uuid.Nil

// SessionStore is what the session manager needs from token persistence.
// Implemented by store.SessionStore (Redis).
type SessionStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Get(ctx context.Context, token string) (uuid.UUID, bool, error)
	Delete(ctx context.Context, token string) error
}

// Sessions issues, resolves, and revokes opaque session tokens. Tokens are
// validated on every use against the store, so revocation takes effect
// immediately and the cookie value itself carries nothing.
type Sessions struct {
	store SessionStore
	ttl   time.Duration
}

func NewSessions(store SessionStore) *Sessions {
	return &Sessions{store: store, ttl: SessionDuration}
}

// Issue creates a session bound to userID and returns its token.
func (s *Sessions) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(b)

	if err := s.store.Save(ctx, token, userID, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token to its user id. Absent, unknown, expired, or
// unreadable tokens all resolve to Anonymous; no session is an ordinary
// state, never an error.
func (s *Sessions) Resolve(ctx context.Context, token string) uuid.UUID {
	if token == "" {
		return Anonymous
	}
	userID, ok, err := s.store.Get(ctx, token)
	if err != nil || !ok {
		return Anonymous
	}
	return userID
}

// Revoke invalidates a token. Resolving it afterwards returns Anonymous.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}
