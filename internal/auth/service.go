// Package auth issues and checks the access tokens that identify the acting
// account on every protected request.
package auth

import (
	"context"
	"errors"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/account"
)

// Authenticator checks credentials and returns the matching account ID.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (int64, error)
}

// Service provides authentication operations.
type Service struct {
	accounts   Authenticator
	jwtService *JWTService
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	Accounts   Authenticator
	JWTService *JWTService
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		accounts:   cfg.Accounts,
		jwtService: cfg.JWTService,
	}
}

// Login exchanges credentials for an access token. Unknown emails and wrong
// passwords both report account.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	accountID, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, account.ErrInvalidCredentials
		}
		return nil, err
	}

	token, _, err := s.jwtService.GenerateAccessToken(accountID)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		ID:          accountID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwtService.ttl.Seconds()),
	}, nil
}

// Authenticate validates an access token and returns the account it carries.
func (s *Service) Authenticate(token string) (int64, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return 0, err
	}
	return claims.AccountID, nil
}
