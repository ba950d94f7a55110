// Package session holds the authenticated subject of a portal user. A Session
// is created once per owner (the CLI process, or one BFF request), hydrated
// from its Store, and changed only by login, logout and 401 teardown.
package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
	"ctdportal/pkg/auth"
)

// Store persists the bearer token between requests or runs.
type Store interface {
	// Load returns "" when nothing is stored.
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// Session is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	store   Store
	decoder *auth.TokenDecoder
	logger  *zap.Logger

	token string
	user  *entities.SessionUser
}

// New creates an anonymous session backed by store.
func New(store Store, decoder *auth.TokenDecoder, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, decoder: decoder, logger: logger}
}

// Hydrate restores the session from the store. A token that cannot be decoded
// or has expired is deleted and the session stays anonymous; only a failing
// store is reported.
func (s *Session) Hydrate() error {
	token, err := s.store.Load()
	if err != nil {
		s.logger.Warn("Discarding unreadable session", zap.Error(err))
		if delErr := s.store.Delete(); delErr != nil {
			return fmt.Errorf("failed to discard session: %w", delErr)
		}
		return nil
	}
	if token == "" {
		return nil
	}

	user, err := s.decode(token)
	if err != nil {
		s.logger.Info("Stored token rejected", zap.Error(err))
		return s.store.Delete()
	}

	s.mu.Lock()
	s.token, s.user = token, user
	s.mu.Unlock()
	return nil
}

// SetToken decodes and persists a freshly issued token. On error the session
// is left as it was.
func (s *Session) SetToken(token string) error {
	user, err := s.decode(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.store.Save(token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.token, s.user = token, user
	s.mu.Unlock()

	s.logger.Debug("Session established", zap.String("user_id", user.ID))
	return nil
}

// Logout ends the session and removes the stored token.
func (s *Session) Logout() error {
	_, err := s.reset()
	return err
}

// Clear tears the session down after the backend rejected the token. It is
// idempotent, so concurrent requests failing together clear it once.
func (s *Session) Clear() {
	had, err := s.reset()
	if had {
		s.logger.Info("Session cleared after unauthorized response")
	}
	if err != nil {
		s.logger.Warn("Failed to delete stored session", zap.Error(err))
	}
}

// reset drops the subject and the stored token. The store is only touched
// while a subject is held.
func (s *Session) reset() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false, nil
	}
	s.token, s.user = "", nil
	return true, s.store.Delete()
}

// User returns a copy of the subject.
func (s *Session) User() (entities.SessionUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return entities.SessionUser{}, false
	}
	return *s.user, true
}

// UserID returns the subject id or "".
func (s *Session) UserID() string {
	u, _ := s.User()
	return u.ID
}

// Token returns the bearer token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a user is logged in
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) decode(token string) (*entities.SessionUser, error) {
	if s.decoder == nil {
		return nil, errors.New("session has no token decoder")
	}
	claims, err := s.decoder.Decode(token)
	if err != nil {
		return nil, err
	}
	return &entities.SessionUser{
		ID:           claims.UserID,
		Email:        claims.Email(),
		Name:         claims.DisplayName(),
		Role:         valueobjects.Role(claims.Role),
		Organization: claims.Organization,
	}, nil
}
