package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xchangepos/backend/internal/kvstore"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is a row of the kv_entries table
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name used by KVEntry
func (KVEntry) TableName() string {
	return "kv_entries"
}

// KVStore is a kvstore.Store backed by the kv_entries table
type KVStore struct {
	db *gorm.DB
}

// NewKVStore creates a new database-backed key-value store
func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

var _ kvstore.Store = (*KVStore)(nil)

// Get reads the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kvstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	// Rows left empty are lock placeholders created by Update
	if entry.Value == "" {
		return nil, kvstore.ErrNotFound
	}
	return []byte(entry.Value), nil
}

// Set inserts or replaces the value stored under key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	entry := KVEntry{
		Key:       key,
		Value:     string(value),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Update locks the row for key (SELECT ... FOR UPDATE) for the duration of
// a transaction, so writers on every replica are serialized. A missing row
// is first created empty so there is always a row to lock.
func (s *KVStore) Update(ctx context.Context, key string, fn kvstore.UpdateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		placeholder := KVEntry{Key: key, CreatedAt: now, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return fmt.Errorf("failed to prepare key %s: %w", key, err)
		}

		var entry KVEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("entry_key = ?", key).
			First(&entry).Error
		if err != nil {
			return fmt.Errorf("failed to lock key %s: %w", key, err)
		}

		var current []byte
		if entry.Value != "" {
			current = []byte(entry.Value)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		err = tx.Model(&KVEntry{}).
			Where("entry_key = ?", key).
			Updates(map[string]interface{}{"value": string(next), "updated_at": time.Now()}).Error
		if err != nil {
			return fmt.Errorf("failed to write key %s: %w", key, err)
		}
		return nil
	})
}
