package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"github.com/jrsteele09/go-upload-web/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storage-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func newTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

// backends returns one fresh instance of every driver.
func backends(t *testing.T) map[string]storage.Storage {
	t.Helper()

	fileStore, err := storage.NewFile(filepath.Join(t.TempDir(), "items.json"))
	require.NoError(t, err)

	redisStore, err := storage.NewRedis(storage.Config{
		Redis: &storage.RedisConfig{Addr: newTestRedis(t).Addr()},
	})
	require.NoError(t, err)

	sqliteStore, err := storage.NewSQLite(newTestSQLiteDB(t))
	require.NoError(t, err)

	all := map[string]storage.Storage{
		storage.DriverMemory: storage.NewMemory(),
		storage.DriverFile:   fileStore,
		storage.DriverRedis:  redisStore,
		storage.DriverSQLite: sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range all {
			_ = s.Close(context.Background())
		}
	})
	return all
}

func TestStorageContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.GetItem(ctx, "client-a", "token")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.SetItem(ctx, "client-a", "token", "first"))
			require.NoError(t, s.SetItem(ctx, "client-a", "token", "second"))
			require.NoError(t, s.SetItem(ctx, "client-b", "token", "other"))

			v, ok, err := s.GetItem(ctx, "client-a", "token")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "second", v)

			require.NoError(t, s.SetItem(ctx, "client-a", "empty", ""))
			v, ok, err = s.GetItem(ctx, "client-a", "empty")
			require.NoError(t, err)
			require.True(t, ok)
			require.Empty(t, v)

			require.NoError(t, s.RemoveItem(ctx, "client-a", "token"))
			require.NoError(t, s.RemoveItem(ctx, "client-a", "token"), "remove must be idempotent")
			require.NoError(t, s.RemoveItem(ctx, "never-seen", "token"))

			_, ok, err = s.GetItem(ctx, "client-a", "token")
			require.NoError(t, err)
			require.False(t, ok)

			v, ok, err = s.GetItem(ctx, "client-b", "token")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "other", v)
		})
	}
}

func TestStorageValidation(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.Error(t, s.SetItem(ctx, "", "token", "x"))
			require.Error(t, s.SetItem(ctx, "client", "", "x"))
			_, _, err := s.GetItem(ctx, "", "token")
			require.Error(t, err)
			require.Error(t, s.RemoveItem(ctx, "client", ""))
		})
	}
}

func TestFileStoragePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "items.json")

	first, err := storage.NewFile(path)
	require.NoError(t, err)
	require.NoError(t, first.SetItem(ctx, "client-a", "token", "abc"))

	second, err := storage.NewFile(path)
	require.NoError(t, err)
	v, ok, err := second.GetItem(ctx, "client-a", "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", v)

	t.Run("corrupt document is rejected", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
		_, err := storage.NewFile(bad)
		require.Error(t, err)
	})
}

func TestFileStorageRollsBackFailedWrites(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "items.json")

	s, err := storage.NewFile(path)
	require.NoError(t, err)
	require.NoError(t, s.SetItem(ctx, "client-a", "token", "abc"))

	// a regular file where the directory was makes every flush fail
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o600))

	t.Run("remove keeps the item", func(t *testing.T) {
		require.Error(t, s.RemoveItem(ctx, "client-a", "token"))
		v, ok, err := s.GetItem(ctx, "client-a", "token")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "abc", v)
	})

	t.Run("set keeps the previous value", func(t *testing.T) {
		require.Error(t, s.SetItem(ctx, "client-a", "token", "def"))
		v, _, err := s.GetItem(ctx, "client-a", "token")
		require.NoError(t, err)
		require.Equal(t, "abc", v)
	})
}

func TestRedisStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := newTestRedis(t)

	s, err := storage.NewRedis(storage.Config{Redis: &storage.RedisConfig{Addr: mr.Addr(), Prefix: "ls:"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	require.NoError(t, s.SetItem(ctx, "client-a", "token", "abc"))
	got, err := mr.Get("ls:client-a:token")
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	mr.Close()
	_, _, err = s.GetItem(ctx, "client-a", "token")
	require.Error(t, err)
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("default is memory", func(t *testing.T) {
		s, err := storage.New(storage.Config{}, storage.Dependencies{})
		require.NoError(t, err)
		require.IsType(t, &storage.InMemoryStorage{}, s)
	})

	t.Run("file", func(t *testing.T) {
		s, err := storage.New(storage.Config{
			Driver: storage.DriverFile,
			File:   &storage.FileConfig{Path: filepath.Join(t.TempDir(), "items.json")},
		}, storage.Dependencies{})
		require.NoError(t, err)
		require.NoError(t, s.SetItem(ctx, "c", "token", "x"))
	})

	t.Run("file without path", func(t *testing.T) {
		_, err := storage.New(storage.Config{Driver: storage.DriverFile}, storage.Dependencies{})
		require.Error(t, err)
	})

	t.Run("redis", func(t *testing.T) {
		s, err := storage.New(storage.Config{
			Driver: storage.DriverRedis,
			Redis:  &storage.RedisConfig{Addr: newTestRedis(t).Addr()},
		}, storage.Dependencies{})
		require.NoError(t, err)
		defer s.Close(ctx)
		require.NoError(t, s.SetItem(ctx, "c", "token", "x"))
	})

	t.Run("sqlite from handle", func(t *testing.T) {
		s, err := storage.New(storage.Config{Driver: storage.DriverSQLite}, storage.Dependencies{SQLiteDB: newTestSQLiteDB(t)})
		require.NoError(t, err)
		require.NoError(t, s.SetItem(ctx, "c", "token", "x"))
	})

	t.Run("sqlite from dsn", func(t *testing.T) {
		s, err := storage.New(storage.Config{
			Driver: storage.DriverSQLite,
			SQLite: &storage.SQLiteConfig{DSN: filepath.Join(t.TempDir(), "items.db")},
		}, storage.Dependencies{})
		require.NoError(t, err)
		defer s.Close(ctx)
		require.NoError(t, s.SetItem(ctx, "c", "token", "x"))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := storage.New(storage.Config{Driver: "etcd"}, storage.Dependencies{})
		require.ErrorIs(t, err, apperrors.ErrUnsupportedDriver)
	})
}
