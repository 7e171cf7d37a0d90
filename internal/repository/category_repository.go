package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"time-planner/internal/model"
)

// CategoryRepository manages task categories. Soft-deleted rows are invisible.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// CreateBatch inserts categories in one batch; ids are filled in place.
func (r *CategoryRepository) CreateBatch(ctx context.Context, categories []model.Category) error {
	if len(categories) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&categories, 100).Error; err != nil {
		return fmt.Errorf("create categories: %w", err)
	}
	return nil
}

// GetOrCreate returns the named category, creating it with color when absent.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, accountID uuid.UUID, name, color string) (*model.Category, error) {
	category, err := r.FindByName(ctx, accountID, name)
	switch {
	case err == nil:
		return category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = &model.Category{AccountID: accountID, Name: name, Color: color}
		if err := r.Create(ctx, category); err != nil {
			return nil, err
		}
		return category, nil
	default:
		return nil, fmt.Errorf("find category: %w", err)
	}
}

func (r *CategoryRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, accountID, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("account_id = ? AND id = ?", accountID, id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, accountID uuid.UUID, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("account_id = ? AND name = ?", accountID, name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) Save(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// SoftDelete stamps deleted_at; the audit hook adds deleted_by.
func (r *CategoryRepository) SoftDelete(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Model(category).
		Updates(map[string]interface{}{"deleted_at": utcNow()}).Error; err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
