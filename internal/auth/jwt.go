package auth

// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","iat":...,"exp":...,"iss":"linkup","email":...,"name":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
//
// The server verifies a token with nothing but the secret, so there is no
// session table. The flip side is that a token stays valid until it expires:
// there is no revocation.

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is how long a login token stays valid.
	DefaultTokenTTL = 7 * 24 * time.Hour

	issuer = "linkup"

	minSecretLength = 16
)

// ErrInvalidToken is returned by Validate for every kind of failure.
// Expired, tampered, malformed and wrongly-signed tokens are deliberately
// indistinguishable to the caller.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is what a token asserts about its bearer.
//
// Email and Name are copied in at issuance and may be stale; only UserID is
// authoritative.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// TokenService issues and verifies HS256 tokens with one process-wide secret.
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService. An empty or short secret is a
// configuration error; there is no built-in fallback secret.
// A non-positive defaultTTL means DefaultTokenTTL.
func NewTokenService(secret string, defaultTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: JWT secret is required")
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), defaultTTL: defaultTTL, now: time.Now}, nil
}

// claims is the JWT payload: the registered claims plus the identity fields.
type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a token for id that expires after the default TTL.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, s.defaultTTL)
}

// GenerateWithDuration signs a token that expires ttl from now.
//
// exp is stored with one-second precision and checked as now < exp, so a
// ttl of zero (or less) yields a token that is already expired.
func (s *TokenService) GenerateWithDuration(id Identity, ttl time.Duration) (string, error) {
	if id.UserID == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}

	now := s.now()
	c := claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the identity it carries.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - the signature matches the secret
//   - the algorithm is exactly HS256 (no "none", no algorithm confusion)
//   - exp is present and in the future
//   - iss is "linkup"
//
// Any failure, including a missing subject, returns ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, ErrInvalidToken
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || c.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: c.Subject, Email: c.Email, Name: c.Name}, nil
}
