package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/xswkr/chartpattern-backend/internal/services"
)

// AnalyzeHandler glues chart images to the external vision service: upload
// to Cloudinary, submit for pattern analysis. The analysis result is passed
// through verbatim.
type AnalyzeHandler struct {
	cloudinary *services.CloudinaryService
	vision     *services.VisionService
}

func NewAnalyzeHandler(cloudinary *services.CloudinaryService, vision *services.VisionService) *AnalyzeHandler {
	return &AnalyzeHandler{cloudinary: cloudinary, vision: vision}
}

// Upload handles POST /api/upload: multipart chart image to Cloudinary.
func (h *AnalyzeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.cloudinary == nil {
		writeError(w, http.StatusServiceUnavailable, "File upload service not available")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	url, err := h.cloudinary.UploadFileFromHeader(r.Context(), fileHeader, "charts")
	if err != nil {
		log.Printf("upload failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     url,
	})
}

type analyzeRequest struct {
	Image string `json:"image"`
}

// Analyze handles POST /api/analyze: submits a chart image (base64 or data
// URL) and returns the structured pattern analysis.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	result, err := h.vision.AnalyzeChart(r.Context(), req.Image)
	if err != nil {
		log.Printf("analysis failed: %v", err)
		writeError(w, http.StatusBadGateway, "Analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  json.RawMessage(result),
	})
}
