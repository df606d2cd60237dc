package storage

import (
	"fmt"

	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"gorm.io/gorm"
)

// Driver identifiers supported by the storage layer.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// New creates a storage backend based on the provided configuration.
func New(cfg Config, deps Dependencies) (Storage, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		if cfg.File == nil || cfg.File.Path == "" {
			return nil, fmt.Errorf("file driver requires a path")
		}
		return NewFile(cfg.File.Path)
	case DriverRedis:
		return NewRedis(cfg)
	case DriverSQLite:
		if deps.SQLiteDB != nil {
			return NewSQLite(deps.SQLiteDB)
		}
		if cfg.SQLite == nil || cfg.SQLite.DSN == "" {
			return nil, fmt.Errorf("sqlite driver requires a dsn or database handle")
		}
		return OpenSQLite(cfg.SQLite.DSN)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnsupportedDriver, "driver %q", driver)
	}
}
