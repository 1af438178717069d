// Package session resolves the bearer token the workflow API client sends
// with every request.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/docflow/internal/application/port"
	apperrors "github.com/garyjia/docflow/pkg/errors"
)

type contextKey string

const tokenKey contextKey = "session_token"

// WithToken attaches a caller-supplied token to ctx. It takes precedence over
// the configured token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, strings.TrimSpace(token))
}

func tokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey).(string); ok {
		return token
	}
	return ""
}

// Claims are the session claims shown to the user
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity describes who the current session belongs to
type Identity struct {
	Subject   string
	Name      string
	Email     string
	ExpiresAt time.Time
}

// Config holds session configuration
type Config struct {
	Token     string
	TokenFile string
}

// Provider implements port.TokenSource
type Provider struct {
	config Config
	now    func() time.Time
}

// NewProvider creates a session provider
func NewProvider(cfg Config) *Provider {
	return &Provider{config: cfg, now: time.Now}
}

// Token returns the current session token. JWT tokens whose exp claim is in
// the past are rejected; opaque tokens pass through unchecked.
func (p *Provider) Token(ctx context.Context) (string, error) {
	token, err := p.resolve(ctx)
	if err != nil {
		return "", err
	}

	claims, ok := parseClaims(token)
	if ok && claims.ExpiresAt != nil && !claims.ExpiresAt.After(p.now()) {
		return "", apperrors.NewAuthError("session expired")
	}
	return token, nil
}

// Identity decodes the claims of the current session token
func (p *Provider) Identity(ctx context.Context) (*Identity, error) {
	token, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}

	claims, ok := parseClaims(token)
	if !ok {
		return nil, errors.New("session token is not a JWT")
	}

	id := &Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func (p *Provider) resolve(ctx context.Context) (string, error) {
	if token := tokenFromContext(ctx); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(p.config.Token); token != "" {
		return token, nil
	}
	if p.config.TokenFile != "" {
		data, err := os.ReadFile(p.config.TokenFile)
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, nil
		}
	}
	return "", apperrors.NewAuthError("no session token")
}

// parseClaims decodes a JWT without verifying its signature. The backend
// verifies; the client only needs exp and display claims.
func parseClaims(token string) (*Claims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

var _ port.TokenSource = (*Provider)(nil)
