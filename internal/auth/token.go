// Package auth issues and verifies bearer tokens and checks credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Access tokens authenticate API calls; verification tokens
// can only be redeemed by the email verification endpoint.
const (
	PurposeAccess       = "access"
	PurposeVerification = "verify"
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingSubject = errors.New("token subject is required")
)

// Claims is the claim set carried by every token. Subject holds the principal email.
type Claims struct {
	IsAdmin bool   `json:"is_admin"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens with a single secret.
type TokenService struct {
	secret          []byte
	accessTTL       time.Duration
	verificationTTL time.Duration
	now             func() time.Time
}

func NewTokenService(secret string, accessTTL, verificationTTL time.Duration) *TokenService {
	return &TokenService{
		secret:          []byte(secret),
		accessTTL:       accessTTL,
		verificationTTL: verificationTTL,
		now:             time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// AccessTTL is the lifetime of tokens issued by IssueAccess.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// Issue signs claims with iat set to now and exp set to now+ttl.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssueAccess issues an API access token with the default lifetime.
func (s *TokenService) IssueAccess(email, role string, isAdmin bool) (string, error) {
	return s.Issue(Claims{
		IsAdmin:          isAdmin,
		Role:             role,
		Purpose:          PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
	}, s.accessTTL)
}

// IssueVerification issues a short-lived email verification token.
func (s *TokenService) IssueVerification(email string) (string, error) {
	return s.Issue(Claims{
		Purpose:          PurposeVerification,
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
	}, s.verificationTTL)
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
