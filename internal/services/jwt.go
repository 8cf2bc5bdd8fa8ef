package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by access tokens. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates signed bearer tokens.
type TokenService interface {
	Issue(username string) (string, error)
	Validate(tokenString string) (string, error)
	TTL() time.Duration
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService around a process-wide signing
// secret. The secret is read once at startup and never exposed.
func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{secret: []byte(secret), ttl: ttl}
}

func (s *tokenService) TTL() time.Duration {
	return s.ttl
}

func (s *tokenService) Issue(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks signature and expiry and returns the subject username.
// Every failure mode collapses to ErrInvalidToken so callers cannot
// distinguish why validation failed.
func (s *tokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
