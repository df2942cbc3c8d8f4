// Package auth verifies the bearer tokens presented at connection time.
// Token issuance belongs to the account service; this package only needs the
// shared HMAC secret to check signatures.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/TrNhDuong/BamboChat/chat"
)

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// A Verifier validates HS256 access tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier checking signatures against secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify parses and validates token and returns the identity it carries.
// Every failure, missing token included, wraps chat.ErrAuth so callers can
// treat them uniformly as a rejected credential.
func (v *Verifier) Verify(token string) (chat.Identity, error) {
	if token == "" {
		return chat.Identity{}, fmt.Errorf("%w: missing token", chat.ErrAuth)
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return chat.Identity{}, fmt.Errorf("%w: %v", chat.ErrAuth, err)
	}
	if !parsed.Valid || c.Subject == "" {
		return chat.Identity{}, fmt.Errorf("%w: missing subject", chat.ErrAuth)
	}

	return chat.Identity{UserID: c.Subject, Email: c.Email}, nil
}

// Sign issues a token for id valid for ttl. Used by tests and local tooling;
// production tokens come from the account service.
func (v *Verifier) Sign(id chat.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := tok.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
