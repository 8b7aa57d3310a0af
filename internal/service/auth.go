package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the managed auth provider vouches for.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IdentityVerifier validates a provider-issued identity token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type SessionClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidSession = errors.New("invalid or expired session")

// AuthService exchanges provider-verified identities for signed session
// tokens. Authentication itself is entirely the provider's job; this service
// only mints and checks the session cookie the admin routes are guarded with.
type AuthService struct {
	verifier IdentityVerifier
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(verifier IdentityVerifier, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		verifier: verifier,
		secret:   []byte(secret),
		ttl:      ttl,
	}
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// IssueSession verifies the identity token with the provider and returns a
// signed session token for the verified identity.
func (s *AuthService) IssueSession(ctx context.Context, idToken string) (string, *Identity, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return "", nil, fmt.Errorf("identity verification failed: %w", err)
	}

	now := time.Now()
	claims := &SessionClaims{
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "safisaana",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, identity, nil
}

// VerifySession parses and validates a session token.
func (s *AuthService) VerifySession(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
