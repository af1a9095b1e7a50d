// Package auth verifies the identity provider's session tokens and exposes the
// caller's identity to handlers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/zastore/pkg/config"
	jwt "github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenMissing is returned when no bearer token was presented.
	ErrTokenMissing = errors.New("auth: token missing")
	// ErrTokenInvalid covers signature, expiry and claim failures.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// Identity is the authenticated buyer or admin.
type Identity struct {
	Subject string
	Name    string
	Email   string
}

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with the shared secret.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	admins   map[string]bool
}

func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	admins := make(map[string]bool, len(cfg.AdminSubjects)+len(cfg.AdminEmails))
	for _, s := range cfg.AdminSubjects {
		if s = strings.TrimSpace(s); s != "" {
			admins["sub:"+s] = true
		}
	}
	for _, e := range cfg.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins["email:"+e] = true
		}
	}
	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		admins:   admins,
	}, nil
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMissing
	}

	var c claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if v.issuer != "" && !c.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrTokenInvalid)
	}
	if v.audience != "" && !c.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: unexpected audience", ErrTokenInvalid)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrTokenInvalid)
	}

	return &Identity{
		Subject: c.Subject,
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
	}, nil
}

// IsAdmin reports whether id is listed by subject or email in the admin config.
func (v *Verifier) IsAdmin(id *Identity) bool {
	if id == nil {
		return false
	}
	if v.admins["sub:"+id.Subject] {
		return true
	}
	return id.Email != "" && v.admins["email:"+strings.ToLower(id.Email)]
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by the middleware, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}
