package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"time-planner/internal/model"
	"time-planner/internal/repository"
)

// Bucket is planned time attributed to a category or template.
type Bucket struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
	Hours float64   `json:"hours"`
}

// Stats summarizes planned hours of an account.
type Stats struct {
	Year       int         `json:"year"`
	ByCategory []Bucket    `json:"byCategory"`
	ByTemplate []Bucket    `json:"byTemplate"`
	Monthly    [12]float64 `json:"monthly"`
}

type StatsService struct {
	store *repository.Store
}

func NewStatsService(store *repository.Store) *StatsService {
	return &StatsService{store: store}
}

// Summary totals hours per category and per template over all tasks, and per
// month for tasks starting in year (in loc). Categories without tasks are left
// out, and so are templates nothing was planned from.
func (s *StatsService) Summary(ctx context.Context, accountID uuid.UUID, year int, loc *time.Location) (*Stats, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	tasks, err := s.store.Tasks.ListByAccount(ctx, accountID, nil)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	categories, err := s.store.Categories.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	templates, err := s.store.Templates.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	stats := &Stats{Year: year}
	byCategory := make(map[uuid.UUID]float64)
	byTemplate := make(map[uuid.UUID]float64)
	for _, task := range tasks {
		byCategory[task.CategoryID] += task.Duration
		if task.TemplateID != nil {
			byTemplate[*task.TemplateID] += task.Duration
		}
		if start := task.Start.In(loc); start.Year() == year {
			stats.Monthly[start.Month()-1] += task.Duration
		}
	}

	stats.ByCategory = categoryBuckets(categories, byCategory)
	stats.ByTemplate = templateBuckets(templates, byTemplate)
	return stats, nil
}

func categoryBuckets(categories []model.Category, hours map[uuid.UUID]float64) []Bucket {
	out := make([]Bucket, 0, len(hours))
	for _, c := range categories {
		if h := hours[c.ID]; h > 0 {
			out = append(out, Bucket{ID: c.ID, Name: c.Name, Color: c.Color, Hours: h})
		}
	}
	return out
}

func templateBuckets(templates []model.TaskTemplate, hours map[uuid.UUID]float64) []Bucket {
	out := make([]Bucket, 0, len(hours))
	for _, t := range templates {
		if h := hours[t.ID]; h > 0 {
			out = append(out, Bucket{ID: t.ID, Name: t.Title, Hours: h})
		}
	}
	return out
}
