package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"time-planner/internal/model"
	"time-planner/internal/repository"
	"time-planner/internal/testutil"
)

var accountSeq int

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	return testutil.OpenStore(t)
}

func newAccount(t *testing.T, store *repository.Store) uuid.UUID {
	t.Helper()
	accountSeq++
	account := &model.Account{
		Email:        fmt.Sprintf("user%d@example.com", accountSeq),
		PasswordHash: "x",
		TokenHash:    fmt.Sprintf("token-%d-%s", accountSeq, uuid.NewString()),
	}
	if err := store.Accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account.ID
}

func newCategory(t *testing.T, store *repository.Store, accountID uuid.UUID, name string) model.Category {
	t.Helper()
	c, err := NewCategoryService(store).Create(context.Background(), accountID, CategoryInput{Name: name, Color: "#112233"})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return *c
}

// clock returns 2026-05-04 at hh:mm UTC.
func clock(hh, mm int) time.Time {
	return time.Date(2026, 5, 4, hh, mm, 0, 0, time.UTC)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
