// Package token keeps the opaque bearer credential of one browser in its
// local storage namespace.
//
// Every operation is total: a failing or missing storage backend is logged
// and then treated as "no token", never returned to the caller.
package token

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-upload-web/storage"
	"github.com/rs/zerolog/log"
)

// StorageKey is the fixed local storage key the token lives under.
const StorageKey = "token"

// Store reads and writes the token of a single client namespace.
type Store struct {
	storage   storage.Storage
	namespace string
}

// NewStore binds the token store to a client namespace. A nil backend is
// allowed and behaves as unavailable storage.
func NewStore(s storage.Storage, namespace string) *Store {
	return &Store{storage: s, namespace: namespace}
}

// Get returns the persisted token, or false when it was never set or the
// storage cannot be read.
func (s *Store) Get(ctx context.Context) (token string, ok bool) {
	err := s.do("get", func() error {
		var err error
		token, ok, err = s.storage.GetItem(ctx, s.namespace, StorageKey)
		return err
	})
	if err != nil {
		return "", false
	}
	return token, ok
}

// Set persists token, overwriting any previous value. The value is not validated.
func (s *Store) Set(ctx context.Context, token string) {
	_ = s.do("set", func() error {
		return s.storage.SetItem(ctx, s.namespace, StorageKey, token)
	})
}

// Remove deletes the persisted token. Removing an absent token is a no-op.
func (s *Store) Remove(ctx context.Context) {
	_ = s.do("remove", func() error {
		return s.storage.RemoveItem(ctx, s.namespace, StorageKey)
	})
}

// IsLoggedIn reports whether a non-empty token is stored. It only says a
// credential is available for outgoing requests; the session decides
// whether the user is logged in.
func (s *Store) IsLoggedIn(ctx context.Context) bool {
	token, ok := s.Get(ctx)
	return ok && token != ""
}

func (s *Store) do(op string, fn func() error) (err error) {
	if s == nil || s.storage == nil || s.namespace == "" {
		return errUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("storage panic: %v", r)
			log.Error().Str("op", op).Str("client_id", s.namespace).Interface("panic", r).Msg("token storage panicked")
		}
	}()
	if err = fn(); err != nil {
		log.Warn().Err(err).Str("op", op).Str("client_id", s.namespace).Msg("token storage unavailable, treating token as absent")
	}
	return err
}
