package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xswkr/chartpattern-backend/internal/models"
	"github.com/xswkr/chartpattern-backend/internal/store"
)

// In-memory stores mirroring the SQL/Redis-backed ones closely enough to
// drive the handlers through real service objects.

type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uuid.UUID]*models.User{}}
}

func (m *memUserStore) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return store.ErrDuplicate
		}
		if u.Provider != "" && existing.Provider == u.Provider && existing.OAuthID == u.OAuthID {
			return store.ErrDuplicate
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUserStore) GetByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Provider == provider && u.OAuthID == oauthID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUserStore) AttachOAuth(ctx context.Context, id uuid.UUID, provider, oauthID, name, picture string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Provider = provider
	u.OAuthID = oauthID
	if name != "" {
		u.Name = name
	}
	if picture != "" {
		u.ProfilePicture = picture
	}
	return nil
}

func (m *memUserStore) RefreshProfile(ctx context.Context, id uuid.UUID, name, picture string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if name != "" {
		u.Name = name
	}
	if picture != "" {
		u.ProfilePicture = picture
	}
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]uuid.UUID
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]uuid.UUID{}}
}

func (m *memSessionStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = userID
	return nil
}

func (m *memSessionStore) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions[token]
	return id, ok, nil
}

func (m *memSessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

type memAnalysisStore struct {
	mu      sync.Mutex
	records []*models.AnalysisRecord
}

func newMemAnalysisStore() *memAnalysisStore {
	return &memAnalysisStore{}
}

func (m *memAnalysisStore) Insert(ctx context.Context, rec *models.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.CreatedAt = time.Now()
	m.records = append(m.records, &cp)
	return nil
}

func (m *memAnalysisStore) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memAnalysisStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AnalysisRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].OwnerID == ownerID {
			out = append(out, *m.records[i])
		}
	}
	return out, nil
}

func (m *memAnalysisStore) MarkShared(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			r.IsShared = true
			return nil
		}
	}
	return store.ErrNotFound
}
