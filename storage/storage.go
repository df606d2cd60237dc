// Package storage is the persistent key/value space behind client local
// storage. Every browser gets its own namespace (its client id) and keys
// inside a namespace behave like localStorage items.
package storage

import (
	"context"
	"fmt"
)

// Storage defines the item operations the token store relies on.
type Storage interface {
	// GetItem returns the stored value and whether it exists.
	GetItem(ctx context.Context, namespace, key string) (string, bool, error)

	// SetItem creates or overwrites a value.
	SetItem(ctx context.Context, namespace, key, value string) error

	// RemoveItem deletes a value. Removing a missing item is not an error.
	RemoveItem(ctx context.Context, namespace, key string) error

	Close(ctx context.Context) error
}

// Config describes the backend selection parameters.
type Config struct {
	Driver string
	File   *FileConfig
	Redis  *RedisConfig
	SQLite *SQLiteConfig
}

// FileConfig points at the JSON document holding every namespace.
type FileConfig struct {
	Path string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// SQLiteConfig provides the database location.
type SQLiteConfig struct {
	DSN string
}

func validate(namespace, key string) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return nil
}
