package auth

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/xswkr/chartpattern-backend/internal/models"
)

// AnalysisStore is what access control needs from record persistence.
// Implemented by store.AnalysisStore.
type AnalysisStore interface {
	Insert(ctx context.Context, rec *models.AnalysisRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.AnalysisRecord, error)
	MarkShared(ctx context.Context, id uuid.UUID) error
}

// Access gates reads and writes on analysis records: reads by ownership or
// the shared flag, writes by ownership only.
type Access struct {
	records AnalysisStore
}

func NewAccess(records AnalysisStore) *Access {
	return &Access{records: records}
}

// CanRead reports whether caller may read rec.
func CanRead(rec *models.AnalysisRecord, caller uuid.UUID) bool {
	return rec.IsShared || (caller != Anonymous && caller == rec.OwnerID)
}

// CanWrite reports whether caller may mutate rec. Sharing state is
// irrelevant; only the owner writes.
func CanWrite(rec *models.AnalysisRecord, caller uuid.UUID) bool {
	return caller != Anonymous && caller == rec.OwnerID
}

// Save stores a new record for ownerID. Anonymous callers get ErrUnauthorized.
func (a *Access) Save(ctx context.Context, ownerID uuid.UUID, imageURL string, result json.RawMessage) (uuid.UUID, error) {
	if ownerID == Anonymous {
		return uuid.Nil, ErrUnauthorized
	}

	rec := &models.AnalysisRecord{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		ImageURL: imageURL,
		Result:   result,
	}
	if err := a.records.Insert(ctx, rec); err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

// Get returns the record when caller may read it. A record that exists but
// is not readable yields ErrForbidden; a missing one, store.ErrNotFound.
func (a *Access) Get(ctx context.Context, id, caller uuid.UUID) (*models.AnalysisRecord, error) {
	rec, err := a.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(rec, caller) {
		return nil, ErrForbidden
	}
	return rec, nil
}

// ListOwned returns the caller's records newest-first as list summaries.
func (a *Access) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]models.AnalysisSummary, error) {
	if ownerID == Anonymous {
		return nil, ErrUnauthorized
	}

	recs, err := a.records.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.AnalysisSummary, 0, len(recs))
	for i := range recs {
		summaries = append(summaries, recs[i].Summary())
	}
	return summaries, nil
}

// Share marks a record shared. Only the owner may share; missing records
// surface store.ErrNotFound, foreign ones ErrForbidden. Sharing is
// one-directional, there is no unshare.
func (a *Access) Share(ctx context.Context, id, caller uuid.UUID) error {
	rec, err := a.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanWrite(rec, caller) {
		return ErrForbidden
	}
	return a.records.MarkShared(ctx, id)
}
