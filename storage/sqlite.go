package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Item is the row layout of the sqlite backend.
type Item struct {
	Namespace string `gorm:"primaryKey;size:64"`
	Key       string `gorm:"primaryKey;column:item_key;size:128"`
	Value     string
	UpdatedAt time.Time
}

func (Item) TableName() string {
	return "local_storage_items"
}

type sqliteStorage struct {
	db    *gorm.DB
	owned bool
}

// OpenSQLite opens the database at dsn and migrates the items table.
func OpenSQLite(dsn string) (Storage, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s, err := newSQLite(db)
	if err != nil {
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLite builds a SQLite-backed storage on an existing handle.
func NewSQLite(db *gorm.DB) (Storage, error) {
	return newSQLite(db)
}

func newSQLite(db *gorm.DB) (*sqliteStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite storage requires database handle")
	}
	if err := db.AutoMigrate(&Item{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &sqliteStorage{db: db}, nil
}

func (s *sqliteStorage) GetItem(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := validate(namespace, key); err != nil {
		return "", false, err
	}
	var item Item
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND item_key = ?", namespace, key).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return item.Value, true, nil
}

func (s *sqliteStorage) SetItem(ctx context.Context, namespace, key, value string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}
	item := Item{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
}

func (s *sqliteStorage) RemoveItem(ctx context.Context, namespace, key string) error {
	if err := validate(namespace, key); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("namespace = ? AND item_key = ?", namespace, key).
		Delete(&Item{}).Error
}

func (s *sqliteStorage) Close(context.Context) error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
