package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"time-planner/internal/model"
	"time-planner/internal/repository"
)

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name  string
	Color string
}

func (in CategoryInput) validate() error {
	var v validator
	v.text(in.Name, "name", maxCategoryName)
	v.check(colorPattern.MatchString(in.Color), "color", "must be a #RRGGBB hex color")
	return v.err()
}

// DeleteCategoryResult reports where the dependents of a deleted category went.
type DeleteCategoryResult struct {
	Fallback            model.Category
	ReassignedTasks     int64
	ReassignedTemplates int64
}

// CategoryService manages categories and the reserved fallback category.
type CategoryService struct {
	store *repository.Store
}

func NewCategoryService(store *repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, accountID uuid.UUID) ([]model.Category, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	return s.store.Categories.ListByAccount(ctx, accountID)
}

func (s *CategoryService) Create(ctx context.Context, accountID uuid.UUID, input CategoryInput) (*model.Category, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := reservedName(input.Name); err != nil {
		return nil, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var category *model.Category
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}
		if err := ensureNameFree(ctx, tx, accountID, input.Name); err != nil {
			return err
		}
		category = &model.Category{AccountID: accountID, Name: input.Name, Color: input.Color}
		return duplicate(tx.Categories.Create(ctx, category), "category name already exists")
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, accountID, categoryID uuid.UUID, input CategoryInput) (*model.Category, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := input.validate(); err != nil {
		return nil, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var category *model.Category
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}
		var err error
		category, err = tx.Categories.FindByID(ctx, accountID, categoryID)
		if err != nil {
			return notFound(err, "category")
		}
		if input.Name != category.Name {
			if category.IsFallback() {
				return fmt.Errorf("the %q category cannot be renamed: %w", model.FallbackCategoryName, ErrConflict)
			}
			if err := reservedName(input.Name); err != nil {
				return err
			}
			if err := ensureNameFree(ctx, tx, accountID, input.Name); err != nil {
				return err
			}
		}
		category.Name = input.Name
		category.Color = input.Color
		return duplicate(tx.Categories.Save(ctx, category), "category name already exists")
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Delete soft-deletes a category after moving its tasks and templates to the
// account's fallback category, which is created on first use.
func (s *CategoryService) Delete(ctx context.Context, accountID, categoryID uuid.UUID) (*DeleteCategoryResult, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var result DeleteCategoryResult
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}
		category, err := tx.Categories.FindByID(ctx, accountID, categoryID)
		if err != nil {
			return notFound(err, "category")
		}
		if category.IsFallback() {
			return fmt.Errorf("the %q category cannot be deleted: %w", model.FallbackCategoryName, ErrConflict)
		}

		fallback, err := tx.Categories.GetOrCreate(ctx, accountID, model.FallbackCategoryName, model.FallbackCategoryColor)
		if err != nil {
			return err
		}
		if result.ReassignedTasks, err = tx.Tasks.ReassignCategory(ctx, accountID, category.ID, fallback.ID); err != nil {
			return err
		}
		if result.ReassignedTemplates, err = tx.Templates.ReassignCategory(ctx, accountID, category.ID, fallback.ID); err != nil {
			return err
		}
		result.Fallback = *fallback
		return tx.Categories.SoftDelete(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// reservedName rejects the fallback name, which only Delete may create.
func reservedName(name string) error {
	if name != model.FallbackCategoryName {
		return nil
	}
	return &ValidationError{Fields: map[string]string{"name": fmt.Sprintf("%q is reserved", name)}}
}

func ensureNameFree(ctx context.Context, tx *repository.Store, accountID uuid.UUID, name string) error {
	_, err := tx.Categories.FindByName(ctx, accountID, name)
	switch {
	case err == nil:
		return fmt.Errorf("category %q already exists: %w", name, ErrConflict)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("find category: %w", err)
	}
}
