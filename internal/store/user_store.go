package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xswkr/chartpattern-backend/internal/models"
)

// UserStore persists users in PostgreSQL. Uniqueness of username and of
// (provider, oauth_id) is enforced by the schema, so concurrent creates for
// the same identity fail atomically with ErrDuplicate.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, COALESCE(password_hash, ''), COALESCE(name, ''),
	COALESCE(provider, ''), COALESCE(oauth_id, ''), COALESCE(profile_picture, ''), created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name,
		&u.Provider, &u.OAuthID, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. Empty provider/oauth_id/password_hash are
// stored as NULL so the partial uniqueness of (provider, oauth_id) holds.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, name, provider, oauth_id, profile_picture, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)
	`, u.ID, u.Username, u.PasswordHash, u.Name, u.Provider, u.OAuthID, u.ProfilePicture, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
}

func (s *UserStore) GetByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = $1 AND oauth_id = $2`, provider, oauthID))
}

// AttachOAuth upgrades a local account in place: the provider identity is
// linked, display fields refreshed, and id plus any password hash kept.
func (s *UserStore) AttachOAuth(ctx context.Context, id uuid.UUID, provider, oauthID, name, picture string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET provider = $2, oauth_id = $3,
			name = COALESCE(NULLIF($4, ''), name),
			profile_picture = COALESCE(NULLIF($5, ''), profile_picture),
			updated_at = NOW()
		WHERE id = $1
	`, id, provider, oauthID, name, picture)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// RefreshProfile applies last-write-wins display metadata on OAuth login.
// Empty values leave the stored fields alone, so a provider that omits a
// field never erases what an earlier login supplied.
func (s *UserStore) RefreshProfile(ctx context.Context, id uuid.UUID, name, picture string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
			profile_picture = COALESCE(NULLIF($3, ''), profile_picture),
			updated_at = NOW()
		WHERE id = $1
	`, id, name, picture)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation reports PostgreSQL error 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
