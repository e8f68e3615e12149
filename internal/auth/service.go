package auth

import (
	"errors"
	"fmt"
)

// OperatorName is the subject of every token issued by the service.
const OperatorName = "operator"

var (
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDisabled is returned by Login when no operator password is configured.
	ErrDisabled = errors.New("authentication disabled")
)

// Service guards the HTTP API with a single operator password.
// With an empty password hash authentication is disabled and every
// request is treated as the operator.
type Service struct {
	passwordHash string
	jwtConfig    *JWTConfig
}

// NewService creates a new authentication service.
func NewService(passwordHash string, jwtConfig *JWTConfig) *Service {
	return &Service{
		passwordHash: passwordHash,
		jwtConfig:    jwtConfig,
	}
}

// Enabled reports whether requests must carry a token.
func (s *Service) Enabled() bool {
	return s.passwordHash != ""
}

// Login validates the operator password and returns a JWT token.
func (s *Service) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if err := ComparePassword(s.passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, OperatorName)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
