package token

import "context"

type contextKey struct{}

// NewContext attaches the token store of the requesting client.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the store attached by NewContext, or nil. A nil store
// behaves as unavailable storage.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(contextKey{}).(*Store)
	return s
}
