package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ctdportal/application/services"
	"ctdportal/infrastructure/config"
	"ctdportal/interfaces/http/rest/handlers"
	"ctdportal/interfaces/http/rest/middleware"
	"ctdportal/pkg/auth"
	apperrors "ctdportal/pkg/errors"
	"ctdportal/pkg/observability"
)

// HealthChecker reports whether the document backend is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Services groups the page services the router exposes
type Services struct {
	Auth      *services.AuthService
	Documents *services.DocumentService
	Graphs    *services.GraphService
	Profiles  *services.ProfileService
}

// Router creates and configures the HTTP router
type Router struct {
	config   *config.Config
	services Services
	backend  HealthChecker
	decoder  *auth.TokenDecoder
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	svc Services,
	backend HealthChecker,
	decoder *auth.TokenDecoder,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:   cfg,
		services: svc,
		backend:  backend,
		decoder:  decoder,
		metrics:  metrics,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Tracing())
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.config.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.config.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	errorHandler := apperrors.NewErrorHandler(rt.logger, rt.config.IsDevelopment())
	authHandler := handlers.NewAuthHandler(rt.services.Auth, errorHandler, rt.logger)
	documentHandler := handlers.NewDocumentHandler(rt.services.Documents, errorHandler, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.services.Graphs, errorHandler, rt.logger)
	userHandler := handlers.NewUserHandler(rt.services.Profiles, errorHandler, rt.logger)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionOptions{
			CookieName: rt.config.SessionCookieName,
			Secure:     rt.config.SessionCookieSecure,
			Decoder:    rt.decoder,
			Logger:     rt.logger,
		}))

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, handlers.DashboardPath, http.StatusFound)
		})

		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/register", authHandler.RegisterForm)
		r.Post("/register", authHandler.Register)
		r.Post("/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Get("/dashboard", documentHandler.Dashboard)

			r.Route("/documents", func(r chi.Router) {
				r.Post("/", documentHandler.CreateDocument)
				r.Get("/{id}", documentHandler.GetDocument)
				r.Put("/{id}", documentHandler.UpdateDocument)
				r.Delete("/{id}", documentHandler.DeleteDocument)
				r.Post("/{id}/transclude", documentHandler.Transclude)
				r.Post("/{id}/sections", documentHandler.AddSection)
				r.Get("/{id}/structure/{versionId}", documentHandler.Structure)
				r.Get("/{id}/version-tree", documentHandler.VersionTree)
				r.Get("/{id}/compare", documentHandler.Compare)
			})

			r.Get("/graph", graphHandler.TransclusionGraph)
			r.Get("/links", graphHandler.Links)
			r.Get("/users/{userId}", userHandler.GetUser)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeStatus(w, http.StatusOK, "healthy", "")
}

// readinessCheck reports ready once the document backend answers.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
	defer cancel()

	if err := rt.backend.Health(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		writeStatus(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	writeStatus(w, http.StatusOK, "ready", "")
}

func writeStatus(w http.ResponseWriter, code int, status, reason string) {
	body := map[string]string{"status": status}
	if reason != "" {
		body["reason"] = reason
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
