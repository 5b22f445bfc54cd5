package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"creatorlens-backend/internal/middleware"
	"creatorlens-backend/internal/models"
	"creatorlens-backend/internal/services"
)

type TranscriptionHandler struct {
	transcriptionService *services.TranscriptionService
}

func NewTranscriptionHandler(transcriptionService *services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{transcriptionService: transcriptionService}
}

func (h *TranscriptionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.StartTranscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	id, reused, err := h.transcriptionService.StartTranscription(r.Context(), userID, req.VideoID, req.Platform)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusAccepted
	if reused {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]interface{}{
		"transcription_id": id,
		"reused":           reused,
	})
}

func (h *TranscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	t, err := h.transcriptionService.GetTranscription(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// GetByVideo looks up the transcription for a platform video without
// knowing the job id.
func (h *TranscriptionHandler) GetByVideo(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	videoID := chi.URLParam(r, "videoID")

	t, err := h.transcriptionService.GetVideoTranscription(r.Context(), videoID, platform)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *TranscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.transcriptionService.DeleteTranscription(r.Context(), id, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transcription deleted"})
}
