package session

import "context"

type contextKey struct{}

// NewContext attaches st to ctx.
func NewContext(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, contextKey{}, st)
}

// FromContext returns the state attached by NewContext. Requests that never
// went through the session middleware get a fresh logged out state.
func FromContext(ctx context.Context) *State {
	if st, ok := ctx.Value(contextKey{}).(*State); ok && st != nil {
		return st
	}
	return NewState()
}
