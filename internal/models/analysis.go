package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is a stored chart analysis. Result is the structured blob
// produced by the vision service and is stored and returned verbatim; this
// subsystem never interprets it beyond the list-summary projection.
type AnalysisRecord struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"userId"`
	ImageURL  string          `json:"imageUrl"`
	Result    json.RawMessage `json:"result"`
	IsShared  bool            `json:"isShared"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AnalysisSummary is the list-view projection of a record. The pattern
// fields are lifted out of the stored result blob.
type AnalysisSummary struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	PatternName string    `json:"patternName"`
	PatternType string    `json:"patternType"`
	Confidence  float64   `json:"confidence"`
	IsShared    bool      `json:"isShared"`
}

// Summary projects a record into its list form. Unknown or malformed result
// blobs yield empty pattern fields rather than an error.
func (r *AnalysisRecord) Summary() AnalysisSummary {
	var head struct {
		PatternName string  `json:"patternName"`
		PatternType string  `json:"patternType"`
		Confidence  float64 `json:"confidence"`
	}
	_ = json.Unmarshal(r.Result, &head)

	return AnalysisSummary{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		PatternName: head.PatternName,
		PatternType: head.PatternType,
		Confidence:  head.Confidence,
		IsShared:    r.IsShared,
	}
}
