// Package keystore persists the account connection between runs. It holds
// exactly one record: the connection currently in use. Analytics data is
// never stored here; the dashboard recomputes it from the feed.
package keystore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nostrlytics/internal/nostr"
)

// ConnectionRecord is the stored form of an account connection.
type ConnectionRecord struct {
	ID         uint   `gorm:"primarykey"`
	Type       string `gorm:"not null"`
	PublicKey  string `gorm:"not null"`
	PrivateKey string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Keystore is a sqlite-backed store for the single active connection.
type Keystore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the keystore database at path and runs
// migrations.
func Open(path string, logger *slog.Logger) (*Keystore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating keystore directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening keystore at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&ConnectionRecord{}); err != nil {
		return nil, fmt.Errorf("migrating keystore: %w", err)
	}

	return &Keystore{db: db, logger: logger}, nil
}

// Save stores the connection, replacing whatever was stored before.
func (k *Keystore) Save(conn nostr.AccountConnection) error {
	if err := conn.Validate(); err != nil {
		return err
	}

	return k.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ConnectionRecord{}).Error; err != nil {
			return fmt.Errorf("clearing previous connection: %w", err)
		}
		record := ConnectionRecord{
			Type:       string(conn.Type),
			PublicKey:  conn.PublicKey,
			PrivateKey: conn.PrivateKey,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("saving connection: %w", err)
		}
		return nil
	})
}

// Load returns the stored connection. The second return value is false
// when none is stored.
func (k *Keystore) Load() (nostr.AccountConnection, bool, error) {
	var record ConnectionRecord
	err := k.db.Order("id desc").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nostr.AccountConnection{}, false, nil
	}
	if err != nil {
		return nostr.AccountConnection{}, false, fmt.Errorf("loading connection: %w", err)
	}

	conn := nostr.AccountConnection{
		Type:       nostr.ConnectionType(record.Type),
		PublicKey:  record.PublicKey,
		PrivateKey: record.PrivateKey,
	}
	if err := conn.Validate(); err != nil {
		k.logger.Warn("discarding invalid stored connection",
			slog.String("error", err.Error()))
		return nostr.AccountConnection{}, false, nil
	}
	return conn, true, nil
}

// Clear removes the stored connection.
func (k *Keystore) Clear() error {
	if err := k.db.Where("1 = 1").Delete(&ConnectionRecord{}).Error; err != nil {
		return fmt.Errorf("clearing connection: %w", err)
	}
	return nil
}

// Ping checks the underlying database connection.
func (k *Keystore) Ping() error {
	sqlDB, err := k.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying database handle.
func (k *Keystore) Close() error {
	sqlDB, err := k.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
