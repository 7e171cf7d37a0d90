package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"time-planner/internal/model"
	"time-planner/internal/repository"
	"time-planner/internal/schedule"
)

// TaskInput represents data required to create or update a task.
type TaskInput struct {
	Title      string
	Start      time.Time
	Duration   float64 // hours
	CategoryID uuid.UUID
	TemplateID *uuid.UUID
}

func (in TaskInput) validate() error {
	var v validator
	v.text(in.Title, "title", maxTitle)
	v.check(!in.Start.IsZero(), "start", "is required")
	v.duration(in.Duration)
	v.check(in.CategoryID != uuid.Nil, "categoryId", "is required")
	return v.err()
}

// TaskService wraps task-related business logic. Every write keeps the
// account's tasks free of overlapping intervals.
type TaskService struct {
	store *repository.Store
}

func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{store: store}
}

// CheckNoOverlap reports whether [start, start+duration) is free for the
// account, ignoring excludeTaskID when set.
func (s *TaskService) CheckNoOverlap(ctx context.Context, accountID uuid.UUID, start time.Time, duration float64, excludeTaskID *uuid.UUID) (bool, error) {
	if err := requireAccount(accountID); err != nil {
		return false, err
	}
	conflict, err := findConflict(ctx, s.store, accountID, start, duration, excludeTaskID)
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}

func (s *TaskService) CreateTask(ctx context.Context, accountID uuid.UUID, input TaskInput) (*model.Task, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var task *model.Task
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}
		if err := ensureReferences(ctx, tx, accountID, input.CategoryID, input.TemplateID); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, accountID, input.Start, input.Duration, nil); err != nil {
			return err
		}
		task = &model.Task{
			AccountID:  accountID,
			CategoryID: input.CategoryID,
			TemplateID: input.TemplateID,
			Title:      input.Title,
			Start:      input.Start,
			Duration:   input.Duration,
		}
		return tx.Tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CreateFromTemplate plans a task at start, copying title, duration and category from the template.
func (s *TaskService) CreateFromTemplate(ctx context.Context, accountID, templateID uuid.UUID, start time.Time) (*model.Task, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if start.IsZero() {
		return nil, &ValidationError{Fields: map[string]string{"start": "is required"}}
	}

	ctx = repository.WithActor(ctx, accountID)
	var task *model.Task
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}
		template, err := tx.Templates.FindByID(ctx, accountID, templateID)
		if err != nil {
			return notFound(err, "template")
		}
		if err := ensureFree(ctx, tx, accountID, start, template.Duration, nil); err != nil {
			return err
		}
		task = &model.Task{
			AccountID:  accountID,
			CategoryID: template.CategoryID,
			TemplateID: &template.ID,
			Title:      template.Title,
			Start:      start,
			Duration:   template.Duration,
		}
		return tx.Tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, accountID, taskID uuid.UUID, input TaskInput) (*model.Task, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	ctx = repository.WithActor(ctx, accountID)
	var task *model.Task
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}
		var err error
		task, err = tx.Tasks.FindByID(ctx, accountID, taskID)
		if err != nil {
			return notFound(err, "task")
		}
		if err := ensureReferences(ctx, tx, accountID, input.CategoryID, input.TemplateID); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, accountID, input.Start, input.Duration, &task.ID); err != nil {
			return err
		}
		task.Title = input.Title
		task.Start = input.Start
		task.Duration = input.Duration
		task.CategoryID = input.CategoryID
		task.TemplateID = input.TemplateID
		return tx.Tasks.Save(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, accountID, taskID uuid.UUID) (*model.Task, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	task, err := s.store.Tasks.FindByID(ctx, accountID, taskID)
	if err != nil {
		return nil, notFound(err, "task")
	}
	return task, nil
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, accountID, taskID uuid.UUID) error {
	if err := requireAccount(accountID); err != nil {
		return err
	}
	return notFound(s.store.Tasks.Delete(ctx, accountID, taskID), "task")
}

// ListInRange returns tasks starting in [from, to), ordered by start.
func (s *TaskService) ListInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]model.Task, error) {
	if err := requireAccount(accountID); err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, &ValidationError{Fields: map[string]string{"to": "must be after from"}}
	}
	return s.store.Tasks.ListStartingIn(ctx, accountID, from, to)
}

func ensureReferences(ctx context.Context, tx *repository.Store, accountID, categoryID uuid.UUID, templateID *uuid.UUID) error {
	if _, err := tx.Categories.FindByID(ctx, accountID, categoryID); err != nil {
		return notFound(err, fmt.Sprintf("category %s", categoryID))
	}
	if templateID != nil {
		if _, err := tx.Templates.FindByID(ctx, accountID, *templateID); err != nil {
			return notFound(err, fmt.Sprintf("template %s", *templateID))
		}
	}
	return nil
}

func ensureFree(ctx context.Context, tx *repository.Store, accountID uuid.UUID, start time.Time, duration float64, excludeTaskID *uuid.UUID) error {
	conflict, err := findConflict(ctx, tx, accountID, start, duration, excludeTaskID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return fmt.Errorf("time slot overlaps %q at %s: %w", conflict.Title, conflict.Start.Format(time.RFC3339), ErrConflict)
	}
	return nil
}

// findConflict scans the account's tasks for the first one overlapping the candidate.
func findConflict(ctx context.Context, st *repository.Store, accountID uuid.UUID, start time.Time, duration float64, excludeTaskID *uuid.UUID) (*model.Task, error) {
	tasks, err := st.Tasks.ListByAccount(ctx, accountID, excludeTaskID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	busy := make([]schedule.Interval, len(tasks))
	for i := range tasks {
		busy[i] = schedule.Span(tasks[i].Start, model.Hours(tasks[i].Duration))
	}
	if i := schedule.FirstConflict(schedule.Span(start, model.Hours(duration)), busy); i >= 0 {
		return &tasks[i], nil
	}
	return nil, nil
}
