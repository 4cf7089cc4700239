package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix = "oauth_state:"
	stateTTL       = 10 * time.Minute
)

// StateStore issues and validates one-time CSRF state values for the
// authorize/callback round trip. States live in Redis so callbacks can land
// on any instance.
type StateStore struct {
	rdb *redis.Client
}

func NewStateStore(rdb *redis.Client) *StateStore {
	return &StateStore{rdb: rdb}
}

// Issue creates a state value bound to a provider name.
func (s *StateStore) Issue(ctx context.Context, provider string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)

	if err := s.rdb.Set(ctx, stateKeyPrefix+state, provider, stateTTL).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// Consume validates and burns a state value, returning the provider it was
// issued for. A state can be consumed once.
func (s *StateStore) Consume(ctx context.Context, state string) (string, bool) {
	if state == "" {
		return "", false
	}
	provider, err := s.rdb.GetDel(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		return "", false
	}
	return provider, true
}
