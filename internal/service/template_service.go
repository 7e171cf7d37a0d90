package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"time-planner/internal/model"
	"time-planner/internal/repository"
)

// TemplateInput represents data required to create or update a template.
type TemplateInput struct {
	Title      string
	Duration   float64 // hours
	CategoryID uuid.UUID
}

func (in TemplateInput) validate() error {
	var v validator
	v.text(in.Title, "title", maxTitle)
	v.duration(in.Duration)
	v.check(in.CategoryID != uuid.Nil, "categoryId", "is required")
	return v.err()
}

// TemplateService manages reusable task templates.
type TemplateService struct {
	store *repository.Store
}

func NewTemplateService(store *repository.Store) *TemplateService {
	return &TemplateService{store: store}
}

func (s *TemplateService) List(ctx context.Context, accountID uuid.UUID) ([]model.TaskTemplate, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	return s.store.Templates.ListByAccount(ctx, accountID)
}

func (s *TemplateService) Create(ctx context.Context, accountID uuid.UUID, input TemplateInput) (*model.TaskTemplate, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var template *model.TaskTemplate
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Categories.FindByID(ctx, accountID, input.CategoryID); err != nil {
			return notFound(err, fmt.Sprintf("category %s", input.CategoryID))
		}
		template = &model.TaskTemplate{
			AccountID:  accountID,
			CategoryID: input.CategoryID,
			Title:      input.Title,
			Duration:   input.Duration,
		}
		return tx.Templates.Create(ctx, template)
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

func (s *TemplateService) Update(ctx context.Context, accountID, templateID uuid.UUID, input TemplateInput) (*model.TaskTemplate, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var template *model.TaskTemplate
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Categories.FindByID(ctx, accountID, input.CategoryID); err != nil {
			return notFound(err, fmt.Sprintf("category %s", input.CategoryID))
		}
		var err error
		template, err = tx.Templates.FindByID(ctx, accountID, templateID)
		if err != nil {
			return notFound(err, "template")
		}
		template.Title = input.Title
		template.Duration = input.Duration
		template.CategoryID = input.CategoryID
		return tx.Templates.Save(ctx, template)
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

// Delete removes the template; tasks planned from it keep their data but lose the reference.
func (s *TemplateService) Delete(ctx context.Context, accountID, templateID uuid.UUID) error {
	if err := requireAccount(accountID); err != nil {
		return err
	}
	ctx = repository.WithActor(ctx, accountID)
	return s.store.WithinTx(ctx, func(tx *repository.Store) error {
		return notFound(tx.Templates.Delete(ctx, accountID, templateID), "template")
	})
}
