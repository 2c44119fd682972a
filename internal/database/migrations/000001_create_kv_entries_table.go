package migrations

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createKVEntriesTableMigration() *gormigrate.Migration {
	// Schema snapshot at the time of this migration
	type kvEntry struct {
		Key       string `gorm:"column:entry_key;primaryKey;size:191"`
		Value     string `gorm:"type:text"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	return &gormigrate.Migration{
		ID: "000001_create_kv_entries_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Table("kv_entries").AutoMigrate(&kvEntry{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("kv_entries")
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createKVEntriesTableMigration())
}
