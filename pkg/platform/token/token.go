// Package token issues and verifies the HMAC-signed JWT access tokens
// used by the HTTP surface.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "veris/pkg/domain-errors"
)

// Role labels what a token's subject may do.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleReviewer  Role = "reviewer"
)

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints signed access tokens. Used by the dev token endpoint and
// by tests; production tokens come from the external identity provider.
type Issuer struct {
	signingKey []byte
	issuer     string
}

// NewIssuer constructs a token issuer.
func NewIssuer(signingKey, issuer string) (*Issuer, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "token signing key is required")
	}
	return &Issuer{signingKey: []byte(signingKey), issuer: issuer}, nil
}

// Issue creates a signed token for the given subject and role.
func (i *Issuer) Issue(subject string, role Role, expiresIn time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(i.signingKey)
}

// Verifier validates signed access tokens.
type Verifier struct {
	signingKey []byte
	issuer     string
}

// NewVerifier constructs a token verifier.
func NewVerifier(signingKey, issuer string) (*Verifier, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "token signing key is required")
	}
	return &Verifier{signingKey: []byte(signingKey), issuer: issuer}, nil
}

// Verify parses and validates a token, returning its claims.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return v.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token validation failed")
	}
	return claims, nil
}
