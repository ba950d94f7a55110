package services

import (
	"context"

	"go.uber.org/zap"

	"ctdportal/application/ports"
	"ctdportal/domain/core/entities"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/session"
	apperrors "ctdportal/pkg/errors"
	"ctdportal/pkg/utils"
)

// AuthService logs users in and out
type AuthService struct {
	gateway ports.Gateway
	cache   *cache.QueryCache
	logger  *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(gateway ports.Gateway, queryCache *cache.QueryCache, logger *zap.Logger) *AuthService {
	return &AuthService{gateway: gateway, cache: queryCache, logger: logger}
}

// Login exchanges credentials for a token and stores it in s.
func (a *AuthService) Login(ctx context.Context, s *session.Session, req entities.LoginRequest) (entities.SessionUser, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return entities.SessionUser{}, apperrors.NewValidationError(err.Error())
	}

	resp, err := a.gateway.For(s).Login(ctx, req)
	if err != nil {
		return entities.SessionUser{}, err
	}

	if err := s.SetToken(resp.AccessToken); err != nil {
		a.logger.Error("Backend issued an unusable token", zap.Error(err))
		return entities.SessionUser{}, apperrors.NewUnauthorizedError("login failed: token rejected").WithCause(err)
	}

	user, _ := s.User()
	a.logger.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Register creates an account. The caller still has to log in.
func (a *AuthService) Register(ctx context.Context, s *session.Session, req entities.RegisterRequest) (*entities.RegisterResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	resp, err := a.gateway.For(s).Register(ctx, req)
	if err != nil {
		return nil, err
	}

	a.logger.Info("User registered", zap.String("user_id", resp.UserID))
	return resp, nil
}

// Logout ends the session and forgets the user's cached queries.
func (a *AuthService) Logout(s *session.Session) error {
	userID := s.UserID()
	if err := s.Logout(); err != nil {
		return apperrors.Wrap(err, "logout failed")
	}
	if userID != "" {
		a.cache.Invalidate(cache.Key(userID))
		a.logger.Info("User logged out", zap.String("user_id", userID))
	}
	return nil
}
