package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"intervuex/internal/config"
	"intervuex/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		cfg := config.NewGormConfig()
		cfg.Logger = logger.Default.LogMode(logger.Silent)
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
	migrateSchema = func(db *gorm.DB) error { return db.AutoMigrate(models.All()...) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	// one connection serializes writers so concurrent tests do not hit SQLITE_LOCKED
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { sqlDB.Close() })
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	return db
}
