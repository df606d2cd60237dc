package config

import (
	"path/filepath"
	"strconv"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetStorageFile() string
	GetRedisAddr() string
	GetRedisUsername() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetSQLiteDSN() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetStorageDriver selects the token storage backend: memory, file, redis or sqlite.
func (Storage) GetStorageDriver() string {
	return GetEnv("STORAGE_DRIVER", "file")
}

func (Storage) GetStorageFile() string {
	return GetEnv("STORAGE_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "local-storage.json"))
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisUsername() string {
	return GetEnv("REDIS_USERNAME", "")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	db, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

// GetRedisPrefix namespaces the keys of this deployment. Empty uses the driver default.
func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "")
}

func (Storage) GetSQLiteDSN() string {
	return GetEnv("SQLITE_DSN", filepath.Join(EnvVars{}.GetDataFolder(), "local-storage.db"))
}
