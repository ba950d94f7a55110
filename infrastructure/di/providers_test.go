package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctdportal/infrastructure/config"
)

func TestInitializeContainer(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "error"

	c, err := InitializeContainer(cfg)
	require.NoError(t, err)
	require.NotNil(t, c.Router)
	require.NotNil(t, c.Tracing)
	t.Cleanup(func() { _ = c.Tracing.Shutdown(context.Background()) })
	assert.Same(t, cfg, c.Config)

	w := httptest.NewRecorder()
	c.Router.Setup().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestInitializeContainer_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	_, err := InitializeContainer(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.APIBaseURL = "not a url"
	_, err = InitializeContainer(cfg)
	assert.Error(t, err)
}

func TestCacheJanitorInterval(t *testing.T) {
	cfg := config.Default()
	cfg.CacheTTL = 0
	assert.Equal(t, time.Minute, CacheJanitorInterval(cfg))
	cfg.CacheTTL = 10 * time.Second
	assert.Equal(t, 10*time.Second, CacheJanitorInterval(cfg))
}
