package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ctdportal/infrastructure/session"
	"ctdportal/pkg/auth"
)

// LoginPath is where anonymous visitors are sent.
const LoginPath = "/login"

type sessionKey struct{}

// SessionOptions configures the session cookie
type SessionOptions struct {
	CookieName string
	Secure     bool
	Decoder    *auth.TokenDecoder
	Logger     *zap.Logger
}

// Session restores the caller's session from the session cookie and puts it
// in the request context. Each request owns its own Session; an invalid
// cookie is removed and the request continues anonymously.
func Session(opts SessionOptions) func(next http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := session.NewCookieStore(opts.CookieName, opts.Secure, w, r)
			s := session.New(store, opts.Decoder, logger)
			if err := s.Hydrate(); err != nil {
				logger.Warn("Failed to restore session", zap.Error(err))
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// WithSession stores s in ctx
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the request's session, or nil outside the Session
// middleware.
func SessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// RequireSession redirects anonymous requests to the login page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := SessionFrom(r.Context())
		if s == nil || !s.IsAuthenticated() {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
