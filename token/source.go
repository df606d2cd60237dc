package token

import (
	"context"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"golang.org/x/oauth2"
)

type source struct {
	ctx   context.Context
	store *Store
}

// TokenSource exposes the stored token to golang.org/x/oauth2 transports.
// It returns ErrMissingCredential while no token is stored.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &source{ctx: ctx, store: s}
}

func (src *source) Token() (*oauth2.Token, error) {
	raw, ok := src.store.Get(src.ctx)
	raw = strings.TrimSpace(raw)
	// the upload backend stores "Bearer <jwt>" in its cookie flavour
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if !ok || raw == "" {
		return nil, apperrors.ErrMissingCredential
	}
	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		Expiry:      Expiry(raw),
	}, nil
}

// Expiry reads the exp claim of a JWT without verifying it. Opaque tokens
// and JWTs without exp return the zero time, meaning "does not expire".
func Expiry(raw string) time.Time {
	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
