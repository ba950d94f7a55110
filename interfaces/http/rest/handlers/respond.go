package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"ctdportal/infrastructure/session"
	"ctdportal/interfaces/http/rest/middleware"
	apperrors "ctdportal/pkg/errors"
)

const maxBodyBytes = 1 << 20

// responder writes JSON bodies and error responses for all handlers.
type responder struct {
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

func (rs responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError renders err inline, except that an UNAUTHORIZED error from any
// route ends the session and sends the browser to the login page.
func (rs responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsUnauthorized(err) {
		if s := middleware.SessionFrom(r.Context()); s != nil {
			s.Clear()
		}
		http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
		return
	}
	rs.errors.Handle(w, r, err)
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

func sessionOf(r *http.Request) *session.Session {
	return middleware.SessionFrom(r.Context())
}
