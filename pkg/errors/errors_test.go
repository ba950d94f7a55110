package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status     int
		wantType   ErrorType
		wantStatus int
	}{
		{http.StatusUnauthorized, ErrorTypeUnauthorized, http.StatusUnauthorized},
		{http.StatusForbidden, ErrorTypeForbidden, http.StatusForbidden},
		{http.StatusNotFound, ErrorTypeNotFound, http.StatusNotFound},
		{http.StatusConflict, ErrorTypeConflict, http.StatusConflict},
		{http.StatusBadRequest, ErrorTypeValidation, http.StatusBadRequest},
		{http.StatusUnprocessableEntity, ErrorTypeValidation, http.StatusBadRequest},
		{http.StatusGatewayTimeout, ErrorTypeTimeout, http.StatusGatewayTimeout},
		{http.StatusInternalServerError, ErrorTypeExternal, http.StatusBadGateway},
		{http.StatusTeapot, ErrorTypeExternal, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "boom")
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.wantStatus, err.HTTPStatus)
			assert.Equal(t, "boom", err.Message)
			assert.Equal(t, tt.status, err.UpstreamStatus)
		})
	}

	t.Run("empty message falls back to status text", func(t *testing.T) {
		err := FromStatus(http.StatusNotFound, "")
		assert.Equal(t, "Not Found", err.Message)
	})
}

func TestTypeHelpersSeeThroughWrapping(t *testing.T) {
	base := NewUnauthorizedError("")
	wrapped := Wrap(base, "loading dashboard")

	assert.True(t, IsUnauthorized(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, "loading dashboard: unauthorized", GetAppError(wrapped).Message)

	plain := Wrap(stderrors.New("disk on fire"), "saving session")
	assert.True(t, IsType(plain, ErrorTypeInternal))
	assert.ErrorContains(t, plain, "disk on fire")
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestErrorHandler(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error keeps its status and type", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/documents/1", nil)
		r.Header.Set("X-Request-ID", "req-1")

		h.Handle(w, r, NewNotFoundError("document"))

		require.Equal(t, http.StatusNotFound, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, "NOT_FOUND", body.Type)
		assert.Equal(t, "document not found", body.Message)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("upstream status is reported", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

		h.Handle(w, r, FromStatus(http.StatusServiceUnavailable, "maintenance").WithEndpoint("/documents"))

		require.Equal(t, http.StatusBadGateway, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "EXTERNAL", body.Type)
		assert.Equal(t, http.StatusServiceUnavailable, body.UpstreamStatus)
	})

	t.Run("plain error is hidden outside debug", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		h.Handle(w, r, stderrors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret detail")
	})

	t.Run("plain error is shown in debug", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		NewErrorHandler(zap.NewNop(), true).Handle(w, r, stderrors.New("secret detail"))

		assert.Contains(t, w.Body.String(), "secret detail")
	})
}
