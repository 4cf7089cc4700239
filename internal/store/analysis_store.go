package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xswkr/chartpattern-backend/internal/models"
)

// AnalysisStore persists analysis records in PostgreSQL. Records are
// append-only: nothing ever mutates after insert except the shared flag,
// which only moves false -> true.
type AnalysisStore struct {
	db *sql.DB
}

func NewAnalysisStore(db *sql.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

func (s *AnalysisStore) Insert(ctx context.Context, rec *models.AnalysisRecord) error {
	rec.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_history (id, user_id, image_url, result, is_shared, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.OwnerID, rec.ImageURL, []byte(rec.Result), rec.IsShared, rec.CreatedAt)
	return err
}

func (s *AnalysisStore) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	var result []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, image_url, result, is_shared, created_at
		FROM analysis_history WHERE id = $1
	`, id).Scan(&rec.ID, &rec.OwnerID, &rec.ImageURL, &result, &rec.IsShared, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Result = result
	return &rec, nil
}

// ListByOwner returns the owner's records newest-first.
func (s *AnalysisStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, image_url, result, is_shared, created_at
		FROM analysis_history WHERE user_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		var result []byte
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.ImageURL, &result, &rec.IsShared, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Result = result
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// MarkShared flips the shared flag on. There is no way back off.
func (s *AnalysisStore) MarkShared(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_history SET is_shared = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
