package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Email    *string `json:"email,omitempty"`
	FullName string  `json:"full_name,omitempty"`
}

// TokenResponse is the outbound token representation.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService orchestrates credential lookup, password verification,
// active-status checks, and token issuance.
type AuthService interface {
	Register(req RegisterRequest) (*models.User, error)
	Login(username, password string) (*TokenResponse, error)
	Refresh(username string) (*TokenResponse, error)
	ResolveIdentity(tokenString string) (*models.User, error)
}

type authService struct {
	users  repositories.UserRepository
	hasher *PasswordHasher
	tokens TokenService
}

func NewAuthService(users repositories.UserRepository, hasher *PasswordHasher, tokens TokenService) AuthService {
	return &authService{users: users, hasher: hasher, tokens: tokens}
}

// Register validates input, hashes the password, and persists the user.
// Uniqueness is enforced by the store's unique indexes, so a concurrent
// duplicate registration loses cleanly with ErrConflict.
func (s *authService) Register(req RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)

	if err := models.ValidateUsername(req.Username); err != nil {
		return nil, NewValidationError("username", err.Error())
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}
	if err := models.ValidateFullName(req.FullName); err != nil {
		return nil, NewValidationError("full_name", err.Error())
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.Must(uuid.NewV4()),
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		FullName:     req.FullName,
		IsActive:     true,
	}

	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	log.Printf("New user registered: %s", user.Username)
	return user, nil
}

// Login runs the authentication state machine: lookup, verify, active
// check, issue. Lookup misses and password mismatches share one error so
// responses cannot reveal whether a username exists.
func (s *authService) Login(username, password string) (*TokenResponse, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	accessToken, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("User logged in: %s", user.Username)
	return &TokenResponse{AccessToken: accessToken, TokenType: "bearer"}, nil
}

// Refresh mints a fresh token for an identity that has already been
// resolved from a currently-valid token. No password round trip.
func (s *authService) Refresh(username string) (*TokenResponse, error) {
	accessToken, err := s.tokens.Issue(username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &TokenResponse{AccessToken: accessToken, TokenType: "bearer"}, nil
}

// ResolveIdentity validates the token, then re-checks the subject
// against the credential store. A cryptographically valid token for a
// deleted account fails with ErrInvalidToken; one for a deactivated
// account fails with ErrAccountInactive.
func (s *authService) ResolveIdentity(tokenString string) (*models.User, error) {
	username, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return user, nil
}

// ValidatePasswordStrength requires at least 8 characters with an
// uppercase letter, a lowercase letter, and a digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return NewValidationError("password", "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}

	if !hasUpper {
		return NewValidationError("password", "password must contain at least one uppercase letter")
	}
	if !hasLower {
		return NewValidationError("password", "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return NewValidationError("password", "password must contain at least one digit")
	}
	return nil
}
