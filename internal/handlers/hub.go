package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"creatorlens-backend/internal/middleware"
	"creatorlens-backend/internal/services"
)

type HubHandler struct {
	hubService *services.HubService
}

func NewHubHandler(hubService *services.HubService) *HubHandler {
	return &HubHandler{hubService: hubService}
}

type hubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *HubHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req hubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	hub, err := h.hubService.CreateHub(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, hub)
}

func (h *HubHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	hubs, err := h.hubService.ListHubs(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"hubs": hubs})
}

func (h *HubHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	hub, err := h.hubService.GetHub(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, hub)
}

func (h *HubHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req hubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	hub, err := h.hubService.UpdateHub(r.Context(), id, userID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, hub)
}

func (h *HubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.hubService.DeleteHub(r.Context(), id, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Hub deleted"})
}

func (h *HubHandler) AddCreator(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		AnalysisID uuid.UUID `json:"analysis_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AnalysisID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "analysis_id is required", r))
		return
	}

	if err := h.hubService.AddCreator(r.Context(), id, userID, req.AnalysisID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Creator added to hub"})
}

func (h *HubHandler) RemoveCreator(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	analysisID, err := uuid.Parse(chi.URLParam(r, "analysisID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid analysis ID format", r))
		return
	}

	if err := h.hubService.RemoveCreator(r.Context(), id, userID, analysisID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Creator removed from hub"})
}

func (h *HubHandler) ListCreators(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	creators, err := h.hubService.ListCreators(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"creators": creators})
}
