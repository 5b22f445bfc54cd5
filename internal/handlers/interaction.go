package handlers

import (
	"encoding/json"
	"net/http"

	"creatorlens-backend/internal/middleware"
	"creatorlens-backend/internal/services"
)

type InteractionHandler struct {
	interactionService *services.InteractionService
}

func NewInteractionHandler(interactionService *services.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactionService: interactionService}
}

func (h *InteractionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Stars int `json:"stars"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.interactionService.RateItem(r.Context(), itemID, userID, req.Stars); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"stars": req.Stars})
}

func (h *InteractionHandler) Comment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	comment, err := h.interactionService.CommentOnItem(r.Context(), itemID, userID, req.Body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *InteractionHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	comments, err := h.interactionService.ListComments(r.Context(), itemID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

func (h *InteractionHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	favorited, err := h.interactionService.ToggleFavorite(r.Context(), itemID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"favorited": favorited})
}
