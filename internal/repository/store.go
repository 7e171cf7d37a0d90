package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store bundles the repositories sharing one connection or transaction.
type Store struct {
	db         *gorm.DB
	Accounts   *AccountRepository
	Categories *CategoryRepository
	Templates  *TemplateRepository
	Tasks      *TaskRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Accounts:   NewAccountRepository(db),
		Categories: NewCategoryRepository(db),
		Templates:  NewTemplateRepository(db),
		Tasks:      NewTaskRepository(db),
	}
}

// WithinTx runs fn against a Store bound to one transaction. The transaction
// commits when fn returns nil and rolls back on error, panic or ctx cancellation.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// LockAccount serializes writers of one account until the surrounding
// transaction ends. On SQLite the single pooled connection already does that.
func (s *Store) LockAccount(ctx context.Context, accountID uuid.UUID) error {
	if s.db.Dialector.Name() != DriverPostgres {
		return nil
	}
	if err := s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", accountID.String()).Error; err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}
