package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type authService struct {
	username string
	password string // plain text or a bcrypt hash
	tokens   security.TokenManager
}

func NewAuthService(username, password string, tokens security.TokenManager) AuthService {
	return &authService{
		username: username,
		password: password,
		tokens:   tokens,
	}
}

// Login checks the configured admin credentials and issues a session token
func (s *authService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if !s.checkCredentials(username, password) {
		logger.Warn("Admin login failed", "username", username)
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAdminToken(s.username)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to issue session token: %w", err)
	}
	logger.Info("Admin logged in", "username", username)
	return token, expiresAt, nil
}

func (s *authService) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	var passOK bool
	if strings.HasPrefix(s.password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	}
	return userOK && passOK
}

// Authenticate validates a session token and returns the admin username
func (s *authService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Username != s.username {
		return "", fmt.Errorf("%w: unknown admin", domain.ErrUnauthorized)
	}
	return claims.Username, nil
}
