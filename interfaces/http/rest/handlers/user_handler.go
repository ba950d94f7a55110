package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ctdportal/application/services"
	apperrors "ctdportal/pkg/errors"
)

// UserHandler serves author profiles
type UserHandler struct {
	responder
	profiles *services.ProfileService
}

// NewUserHandler creates a new user handler
func NewUserHandler(profiles *services.ProfileService, errors *apperrors.ErrorHandler, logger *zap.Logger) *UserHandler {
	return &UserHandler{responder: responder{errors: errors, logger: logger}, profiles: profiles}
}

// GetUser handles GET /users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	view, err := h.profiles.Profile(r.Context(), sessionOf(r), chi.URLParam(r, "userId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}
