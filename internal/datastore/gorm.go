package datastore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// kvEntry is the GORM model backing durable key-value storage.
type kvEntry struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (kvEntry) TableName() string {
	return "kv_entries"
}

// GormKV is a KV backed by a SQLite database through GORM.
type GormKV struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a SQLite-backed KV at path.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*GormKV, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrating kv schema: %w", err)
	}
	return &GormKV{db: db}, nil
}

func (g *GormKV) Get(key string) (string, bool) {
	var entry kvEntry
	err := g.db.First(&entry, "key = ?", key).Error
	if err != nil {
		return "", false
	}
	return entry.Value, true
}

func (g *GormKV) Set(key, value string) error {
	entry := kvEntry{Key: key, Value: value}
	return g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (g *GormKV) Delete(key string) error {
	err := g.db.Delete(&kvEntry{}, "key = ?", key).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
