package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xswkr/chartpattern-backend/internal/models"
	"github.com/xswkr/chartpattern-backend/internal/store"
)

// mockUserStore is an in-memory UserStore that enforces the same uniqueness
// rules as the SQL schema: username, and (provider, oauth_id).
type mockUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User

	createErr error
	getErr    error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[uuid.UUID]*models.User{}}
}

func (m *mockUserStore) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
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

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) GetByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Provider == provider && u.OAuthID == oauthID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) AttachOAuth(ctx context.Context, id uuid.UUID, provider, oauthID, name, picture string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, existing := range m.users {
		if existing.ID != id && existing.Provider == provider && existing.OAuthID == oauthID {
			return store.ErrDuplicate
		}
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

func (m *mockUserStore) RefreshProfile(ctx context.Context, id uuid.UUID, name, picture string) error {
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

// mockSessionStore is an in-memory SessionStore with expiry.
type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry

	saveErr error
	getErr  error
}

type sessionEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]sessionEntry{}}
}

func (m *mockSessionStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[token] = sessionEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return uuid.Nil, false, m.getErr
	}
	e, ok := m.sessions[token]
	if !ok || time.Now().After(e.expiresAt) {
		return uuid.Nil, false, nil
	}
	return e.userID, true, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// mockAnalysisStore is an in-memory AnalysisStore preserving insert order.
type mockAnalysisStore struct {
	mu      sync.Mutex
	records []*models.AnalysisRecord

	insertErr error
}

func newMockAnalysisStore() *mockAnalysisStore {
	return &mockAnalysisStore{}
}

func (m *mockAnalysisStore) Insert(ctx context.Context, rec *models.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	cp := *rec
	cp.CreatedAt = time.Now()
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockAnalysisStore) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
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

func (m *mockAnalysisStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AnalysisRecord
	// newest first, matching the SQL ORDER BY created_at DESC
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].OwnerID == ownerID {
			out = append(out, *m.records[i])
		}
	}
	return out, nil
}

func (m *mockAnalysisStore) MarkShared(ctx context.Context, id uuid.UUID) error {
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
