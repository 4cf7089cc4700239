package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xswkr/chartpattern-backend/internal/auth"
	"github.com/xswkr/chartpattern-backend/internal/middleware"
	"github.com/xswkr/chartpattern-backend/internal/models"
	"github.com/xswkr/chartpattern-backend/internal/store"
)

// ChartHandler serves saved analysis records: save, read, list, share.
type ChartHandler struct {
	access      *auth.Access
	frontendURL string
}

func NewChartHandler(access *auth.Access, frontendURL string) *ChartHandler {
	return &ChartHandler{access: access, frontendURL: frontendURL}
}

type saveChartRequest struct {
	ImageURL string          `json:"imageUrl"`
	Result   json.RawMessage `json:"result"`
}

// Save handles POST /api/chart/save.
func (h *ChartHandler) Save(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserID(r.Context())

	var req saveChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ImageURL == "" || len(req.Result) == 0 {
		writeError(w, http.StatusBadRequest, "imageUrl and result are required")
		return
	}

	if _, err := h.access.Save(r.Context(), callerID, req.ImageURL, req.Result); err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		log.Printf("chart save failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save analysis")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Get handles GET /api/chart/{id}. Readable by the owner always and by
// anyone once shared. Owner identity is redacted for non-owner readers.
func (h *ChartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Chart not found")
		return
	}
	callerID := middleware.UserID(r.Context())

	rec, err := h.access.Get(r.Context(), id, callerID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Chart not found")
		case errors.Is(err, auth.ErrForbidden):
			writeError(w, http.StatusForbidden, "Access denied")
		default:
			log.Printf("chart get failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    chartData(rec, callerID),
	})
}

// List handles GET /api/chart/list: the caller's records, newest first.
func (h *ChartHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserID(r.Context())

	summaries, err := h.access.ListOwned(r.Context(), callerID)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		log.Printf("chart list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"list": summaries})
}

// Share handles POST /api/chart/share/{id}. Only the owner may share; both
// a missing record and a foreign one answer 403 so record ids can't be
// probed.
func (h *ChartHandler) Share(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusForbidden, "Permission denied")
		return
	}
	callerID := middleware.UserID(r.Context())

	if err := h.access.Share(r.Context(), id, callerID); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, auth.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Permission denied")
			return
		}
		log.Printf("chart share failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     h.frontendURL + "/?id=" + id.String(),
	})
}

// chartData shapes a record for the wire. The owner id is included only for
// the owner's own reads.
func chartData(rec *models.AnalysisRecord, callerID uuid.UUID) map[string]interface{} {
	data := map[string]interface{}{
		"id":        rec.ID.String(),
		"imageUrl":  rec.ImageURL,
		"result":    rec.Result,
		"isShared":  rec.IsShared,
		"createdAt": rec.CreatedAt,
	}
	if callerID == rec.OwnerID {
		data["userId"] = rec.OwnerID.String()
	}
	return data
}
