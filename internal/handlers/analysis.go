package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"creatorlens-backend/internal/middleware"
	"creatorlens-backend/internal/models"
	"creatorlens-backend/internal/services"
)

type AnalysisHandler struct {
	analysisService *services.AnalysisService
	exportService   *services.ExportService
}

func NewAnalysisHandler(analysisService *services.AnalysisService, exportService *services.ExportService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService, exportService: exportService}
}

// Start kicks off (or reuses) an analysis. The platform comes from the URL
// so YouTube and Instagram mount as parallel routes.
func (h *AnalysisHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	platform := chi.URLParam(r, "platform")

	var req models.StartAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"target": "Target is required"}, r))
		return
	}

	id, reused, err := h.analysisService.StartAnalysis(r.Context(), userID, platform, req.Target)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusAccepted
	if reused {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]interface{}{
		"analysis_id": id,
		"reused":      reused,
	})
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	status, err := h.analysisService.GetAnalysisStatus(r.Context(), id, page, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	analyses, err := h.analysisService.ListAnalyses(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": analyses})
}

func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.analysisService.DeleteAnalysis(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Analysis deleted"})
}

// Export streams the completed analysis as a CSV or JSON download.
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = services.ExportFormatCSV
	}

	analysis, items, err := h.analysisService.Snapshot(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	export, err := h.exportService.Render(analysis, items, format)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(export.Content)
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid ID format", r))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
