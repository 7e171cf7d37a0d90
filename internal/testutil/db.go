// Package testutil provides shared helpers for tests that need a real database.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"time-planner/internal/model"
	"time-planner/internal/repository"
)

// OpenDB opens a migrated SQLite database in a temp dir that is removed with the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "planner.db")
	db, err := repository.NewDB(repository.DriverSQLite, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// OpenStore is OpenDB wrapped in a repository.Store.
func OpenStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(OpenDB(t))
}

// DeletedCategory loads a soft-deleted category row, which repositories never return.
func DeletedCategory(db *gorm.DB, accountID, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := db.Unscoped().
		Where("account_id = ? AND id = ? AND deleted_at IS NOT NULL", accountID, id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
