package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/security"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// AuthService handles the single-admin password login.
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates a new authentication service.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// Login verifies the admin password against the configured bcrypt hash and
// issues a signed admin token.
func (s *AuthService) Login(password string) (string, error) {
	if config.AdminPasswordHash == "" {
		return "", fmt.Errorf("admin login is not configured")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(config.AdminPasswordHash), []byte(password)); err != nil {
		if s.logger != nil {
			s.logger.Auth().Warn("Admin login rejected")
		}
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := security.GenerateAdminToken(config.JWTSecret, config.AdminTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue admin token: %w", err)
	}

	if s.logger != nil {
		s.logger.Auth().Info("Admin login succeeded")
	}
	return token, nil
}
