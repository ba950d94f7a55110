package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ctdportal/application/services"
	apperrors "ctdportal/pkg/errors"
)

// GraphHandler serves the transclusion graph and the link explorer
type GraphHandler struct {
	responder
	graphs *services.GraphService
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graphs *services.GraphService, errors *apperrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{responder: responder{errors: errors, logger: logger}, graphs: graphs}
}

// TransclusionGraph handles GET /graph
func (h *GraphHandler) TransclusionGraph(w http.ResponseWriter, r *http.Request) {
	view, err := h.graphs.TransclusionGraph(r.Context(), sessionOf(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Links handles GET /links?document=all|<id>
func (h *GraphHandler) Links(w http.ResponseWriter, r *http.Request) {
	view, err := h.graphs.LinkExplorer(r.Context(), sessionOf(r), r.URL.Query().Get("document"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}
