package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ctdportal/application/services"
	"ctdportal/domain/core/entities"
	apperrors "ctdportal/pkg/errors"
)

// DocumentHandler handles the dashboard and document routes
type DocumentHandler struct {
	responder
	documents *services.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *services.DocumentService, errors *apperrors.ErrorHandler, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{responder: responder{errors: errors, logger: logger}, documents: documents}
}

// Dashboard handles GET /dashboard
func (h *DocumentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.documents.Dashboard(r.Context(), sessionOf(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// CreateDocument handles POST /documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateDocumentRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	doc, err := h.documents.CreateDocument(r.Context(), sessionOf(r), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	view, err := h.documents.Detail(r.Context(), sessionOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// UpdateDocument handles PUT /documents/{id}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req entities.UpdateDocumentRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	doc, err := h.documents.UpdateDocument(r.Context(), sessionOf(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documents.DeleteDocument(r.Context(), sessionOf(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transclude handles POST /documents/{id}/transclude
func (h *DocumentHandler) Transclude(w http.ResponseWriter, r *http.Request) {
	var req entities.TranscludeRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	t, err := h.documents.Transclude(r.Context(), sessionOf(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, t)
}

// AddSection handles POST /documents/{id}/sections
func (h *DocumentHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	var req entities.AddSectionRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	doc, err := h.documents.AddSection(r.Context(), sessionOf(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, doc)
}

// Structure handles GET /documents/{id}/structure/{versionId}
func (h *DocumentHandler) Structure(w http.ResponseWriter, r *http.Request) {
	view, err := h.documents.Structure(r.Context(), sessionOf(r), chi.URLParam(r, "id"), chi.URLParam(r, "versionId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// VersionTree handles GET /documents/{id}/version-tree
func (h *DocumentHandler) VersionTree(w http.ResponseWriter, r *http.Request) {
	view, err := h.documents.VersionTree(r.Context(), sessionOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Compare handles GET /documents/{id}/compare?version=N. Without a version
// the current version is compared with its predecessor.
func (h *DocumentHandler) Compare(w http.ResponseWriter, r *http.Request) {
	version := 0
	if raw := r.URL.Query().Get("version"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, r, apperrors.NewValidationError("version must be a positive integer"))
			return
		}
		version = n
	}

	view, err := h.documents.Compare(r.Context(), sessionOf(r), chi.URLParam(r, "id"), version)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}
