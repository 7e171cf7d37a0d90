package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"time-planner/internal/model"
)

// TemplateRepository handles CRUD for task templates.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *model.TaskTemplate) error {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// CreateBatch inserts templates in one batch; ids are filled in place.
func (r *TemplateRepository) CreateBatch(ctx context.Context, templates []model.TaskTemplate) error {
	if len(templates) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&templates, 100).Error; err != nil {
		return fmt.Errorf("create templates: %w", err)
	}
	return nil
}

func (r *TemplateRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]model.TaskTemplate, error) {
	var templates []model.TaskTemplate
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("title ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, accountID, id uuid.UUID) (*model.TaskTemplate, error) {
	var template model.TaskTemplate
	if err := r.db.WithContext(ctx).Where("account_id = ? AND id = ?", accountID, id).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *model.TaskTemplate) error {
	if err := r.db.WithContext(ctx).Save(template).Error; err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

// Delete removes the template and clears the template reference of its tasks.
func (r *TemplateRepository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Task{}).Where("account_id = ? AND template_id = ?", accountID, id).
		Update("template_id", nil).Error; err != nil {
		return fmt.Errorf("detach template tasks: %w", err)
	}
	res := db.Where("account_id = ? AND id = ?", accountID, id).Delete(&model.TaskTemplate{})
	if res.Error != nil {
		return fmt.Errorf("delete template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReassignCategory moves every template of category from onto category to.
func (r *TemplateRepository) ReassignCategory(ctx context.Context, accountID, from, to uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.TaskTemplate{}).
		Where("account_id = ? AND category_id = ?", accountID, from).
		Update("category_id", to)
	if res.Error != nil {
		return 0, fmt.Errorf("reassign templates: %w", res.Error)
	}
	return res.RowsAffected, nil
}
