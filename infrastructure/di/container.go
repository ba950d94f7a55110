package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"ctdportal/infrastructure/apiclient"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/config"
	"ctdportal/interfaces/http/rest"
	"ctdportal/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector
	Tracing *observability.Tracing
	Cache   *cache.QueryCache
	Client  *apiclient.Client
	Router  *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideQueryCache,
	ProvideTokenDecoder,
	ProvideAPIClient,
	ProvideGateway,
	ProvideHealthChecker,
	ProvideAuthService,
	ProvideDocumentService,
	ProvideGraphService,
	ProvideProfileService,
	wire.Struct(new(rest.Services), "*"),
	rest.NewRouter,
	wire.Struct(new(Container), "*"),
)
