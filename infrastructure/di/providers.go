package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ctdportal/application/ports"
	"ctdportal/application/services"
	"ctdportal/infrastructure/apiclient"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/config"
	"ctdportal/infrastructure/session"
	"ctdportal/interfaces/http/rest"
	"ctdportal/pkg/auth"
	"ctdportal/pkg/observability"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "ctdportal"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(MetricsNamespace)
}

// ProvideTracing installs the process tracer provider
func ProvideTracing(cfg *config.Config) (*observability.Tracing, error) {
	return observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName: MetricsNamespace,
		Version:     cfg.Tracing.ServiceVersion,
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
}

// ProvideQueryCache creates the per-user query cache
func ProvideQueryCache(cfg *config.Config, metrics *observability.Collector) *cache.QueryCache {
	return cache.NewQueryCache(cfg.CacheTTL, metrics)
}

// ProvideTokenDecoder creates the bearer token decoder. Without JWT_SECRET
// tokens are decoded unverified.
func ProvideTokenDecoder(cfg *config.Config) *auth.TokenDecoder {
	return auth.NewTokenDecoder(cfg.JWTSecret)
}

// ProvideAPIClient creates the document backend client
func ProvideAPIClient(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (*apiclient.Client, error) {
	return apiclient.New(apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.UpstreamTimeout,
		Breaker: apiclient.BreakerConfig{
			Name:             "document-backend",
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
			MinRequests:      cfg.Breaker.MinRequests,
		},
		Logger:  logger,
		Metrics: metrics,
	})
}

// ProvideGateway binds the client to a session per use
func ProvideGateway(client *apiclient.Client) ports.Gateway {
	return ports.GatewayFunc(func(s *session.Session) ports.DocumentBackend {
		return client.WithSession(s)
	})
}

// ProvideHealthChecker exposes the client's health probe to the router
func ProvideHealthChecker(client *apiclient.Client) rest.HealthChecker {
	return client
}

// ProvideAuthService creates the auth service
func ProvideAuthService(gateway ports.Gateway, queryCache *cache.QueryCache, logger *zap.Logger) *services.AuthService {
	return services.NewAuthService(gateway, queryCache, logger)
}

// ProvideDocumentService creates the document service
func ProvideDocumentService(
	cfg *config.Config,
	gateway ports.Gateway,
	queryCache *cache.QueryCache,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.DocumentService {
	return services.NewDocumentService(gateway, queryCache, metrics, logger, cfg.FetchConcurrency)
}

// ProvideGraphService creates the graph service
func ProvideGraphService(cfg *config.Config, gateway ports.Gateway, queryCache *cache.QueryCache, logger *zap.Logger) *services.GraphService {
	return services.NewGraphService(gateway, queryCache, logger, cfg.FetchConcurrency)
}

// ProvideProfileService creates the profile service
func ProvideProfileService(cfg *config.Config, gateway ports.Gateway, queryCache *cache.QueryCache) *services.ProfileService {
	return services.NewProfileService(gateway, queryCache, cfg.FetchConcurrency)
}

// CacheJanitorInterval is how often expired cache entries are swept.
func CacheJanitorInterval(cfg *config.Config) time.Duration {
	if cfg.CacheTTL <= 0 {
		return time.Minute
	}
	return cfg.CacheTTL
}
