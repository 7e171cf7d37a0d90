package service

import (
	"context"
	"errors"
	"testing"

	"time-planner/internal/model"
	"time-planner/internal/repository"
	"time-planner/internal/testutil"
)

func TestDeleteCategoryReassignsToFallback(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	store := repository.NewStore(db)
	account := newAccount(t, store)
	categories := NewCategoryService(store)
	work := newCategory(t, store, account, "Work")

	tpl, err := NewTemplateService(store).Create(ctx, account, TemplateInput{Title: "Sync", Duration: 0.5, CategoryID: work.ID})
	if err != nil {
		t.Fatal(err)
	}
	tasks := NewTaskService(store)
	for _, hh := range []int{9, 11} {
		if _, err := tasks.CreateTask(ctx, account, TaskInput{Title: "t", Start: clock(hh, 0), Duration: 1, CategoryID: work.ID}); err != nil {
			t.Fatal(err)
		}
	}

	result, err := categories.Delete(ctx, account, work.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if result.Fallback.Name != model.FallbackCategoryName {
		t.Fatalf("fallback = %q", result.Fallback.Name)
	}
	if result.ReassignedTasks != 2 || result.ReassignedTemplates != 1 {
		t.Fatalf("reassigned %d tasks, %d templates", result.ReassignedTasks, result.ReassignedTemplates)
	}

	stored, _ := store.Tasks.ListByAccount(ctx, account, nil)
	for _, task := range stored {
		if task.CategoryID != result.Fallback.ID {
			t.Fatalf("task %s still in category %s", task.ID, task.CategoryID)
		}
	}
	movedTpl, err := store.Templates.FindByID(ctx, account, tpl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if movedTpl.CategoryID != result.Fallback.ID {
		t.Fatalf("template category = %s", movedTpl.CategoryID)
	}

	deleted, err := testutil.DeletedCategory(db, account, work.ID)
	if err != nil {
		t.Fatalf("soft-deleted row missing: %v", err)
	}
	if deleted.DeletedBy == nil || *deleted.DeletedBy != account {
		t.Fatalf("deleted_by = %v, want %s", deleted.DeletedBy, account)
	}

	list, _ := categories.List(ctx, account)
	if len(list) != 1 || list[0].ID != result.Fallback.ID {
		t.Fatalf("visible categories = %+v", list)
	}
}

func TestFallbackCategoryIsProtected(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	account := newAccount(t, store)
	categories := NewCategoryService(store)

	work := newCategory(t, store, account, "Work")
	result, err := categories.Delete(ctx, account, work.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := categories.Delete(ctx, account, result.Fallback.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("delete fallback err = %v, want ErrConflict", err)
	}
	if _, err := categories.Update(ctx, account, result.Fallback.ID, CategoryInput{Name: "Misc", Color: "#000000"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("rename fallback err = %v, want ErrConflict", err)
	}
	recolored, err := categories.Update(ctx, account, result.Fallback.ID, CategoryInput{Name: model.FallbackCategoryName, Color: "#000000"})
	if err != nil {
		t.Fatalf("recolor fallback: %v", err)
	}
	if recolored.Color != "#000000" {
		t.Fatalf("color = %q", recolored.Color)
	}
}

func TestFallbackNameIsReserved(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	account := newAccount(t, store)
	categories := NewCategoryService(store)

	if _, err := categories.Create(ctx, account, CategoryInput{Name: " Other ", Color: "#000000"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("create reserved err = %v, want ErrValidation", err)
	}
	work := newCategory(t, store, account, "Work")
	if _, err := categories.Update(ctx, account, work.ID, CategoryInput{Name: model.FallbackCategoryName, Color: "#112233"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("rename to reserved err = %v, want ErrValidation", err)
	}

	// The ordinary category stays deletable and the fallback appears on delete.
	result, err := categories.Delete(ctx, account, work.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.Fallback.Name != model.FallbackCategoryName {
		t.Fatalf("fallback = %+v", result.Fallback)
	}
}

func TestCategoryNamesAreUniquePerAccount(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	categories := NewCategoryService(store)
	alice := newAccount(t, store)
	bob := newAccount(t, store)

	work := newCategory(t, store, alice, "Work")
	if _, err := categories.Create(ctx, alice, CategoryInput{Name: " Work ", Color: "#123456"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
	newCategory(t, store, bob, "Work")

	home := newCategory(t, store, alice, "Home")
	if _, err := categories.Update(ctx, alice, home.ID, CategoryInput{Name: "Work", Color: "#123456"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("rename onto existing err = %v, want ErrConflict", err)
	}

	// A soft-deleted name can be reused.
	if _, err := categories.Delete(ctx, alice, work.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := categories.Create(ctx, alice, CategoryInput{Name: "Work", Color: "#123456"}); err != nil {
		t.Fatalf("reuse deleted name: %v", err)
	}
}

func TestCategoryValidationAndOwnership(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	categories := NewCategoryService(store)
	alice := newAccount(t, store)
	bob := newAccount(t, store)

	if _, err := categories.Create(ctx, alice, CategoryInput{Name: "Work", Color: "red"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad color err = %v, want ErrValidation", err)
	}
	if _, err := categories.Create(ctx, alice, CategoryInput{Name: "", Color: "#FFFFFF"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty name err = %v, want ErrValidation", err)
	}

	bobs := newCategory(t, store, bob, "Private")
	if _, err := categories.Update(ctx, alice, bobs.ID, CategoryInput{Name: "Mine", Color: "#FFFFFF"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update err = %v, want ErrNotFound", err)
	}
	if _, err := categories.Delete(ctx, alice, bobs.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTemplateKeepsTasks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	account := newAccount(t, store)
	work := newCategory(t, store, account, "Work")
	templates := NewTemplateService(store)

	tpl, err := templates.Create(ctx, account, TemplateInput{Title: "Focus", Duration: 2, CategoryID: work.ID})
	if err != nil {
		t.Fatal(err)
	}
	task, err := NewTaskService(store).CreateFromTemplate(ctx, account, tpl.ID, clock(9, 0))
	if err != nil {
		t.Fatal(err)
	}

	if err := templates.Delete(ctx, account, tpl.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := templates.Delete(ctx, account, tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}

	kept, err := store.Tasks.FindByID(ctx, account, task.ID)
	if err != nil {
		t.Fatalf("task removed with its template: %v", err)
	}
	if kept.TemplateID != nil {
		t.Fatalf("template reference = %s, want nil", kept.TemplateID)
	}
	if kept.Title != "Focus" || kept.Duration != 2 {
		t.Fatalf("task = %+v", kept)
	}
}
