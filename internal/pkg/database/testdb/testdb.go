// Package testdb opens a migrated, file-backed SQLite database for tests.
package testdb

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/foxauth/internal/pkg/config"
	"github.com/ManuelReschke/foxauth/internal/pkg/database"
)

// New returns a fresh database that is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "foxauth_test.db"),
	}, false)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
