package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCreateTaskRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)
	account := newAccount(t, store)
	work := newCategory(t, store, account, "Work")

	if _, err := svc.CreateTask(ctx, account, TaskInput{Title: "standup", Start: clock(9, 0), Duration: 1, CategoryID: work.ID}); err != nil {
		t.Fatalf("create first task: %v", err)
	}

	tests := []struct {
		name     string
		start    int
		duration float64
		wantErr  error
	}{
		{name: "starts inside", start: 30, duration: 0.5, wantErr: ErrConflict},
		{name: "touches end", start: 60, duration: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := clock(9, 0).Add(minutes(tt.start))
			_, err := svc.CreateTask(ctx, account, TaskInput{Title: tt.name, Start: start, Duration: tt.duration, CategoryID: work.ID})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	tasks, err := store.Tasks.ListByAccount(ctx, account, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("stored %d tasks, want 2", len(tasks))
	}
}

func TestCheckNoOverlap(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)
	account := newAccount(t, store)
	work := newCategory(t, store, account, "Work")

	existing, err := svc.CreateTask(ctx, account, TaskInput{Title: "deep work", Start: clock(10, 0), Duration: 2, CategoryID: work.ID})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		hh, mm   int
		duration float64
		exclude  *uuid.UUID
		want     bool
	}{
		{name: "before, touching", hh: 9, mm: 0, duration: 1, want: true},
		{name: "covers existing", hh: 9, mm: 0, duration: 4, want: false},
		{name: "inside existing", hh: 10, mm: 30, duration: 0.25, want: false},
		{name: "overlaps tail", hh: 11, mm: 59, duration: 1, want: false},
		{name: "after, touching", hh: 12, mm: 0, duration: 1, want: true},
		{name: "excluded self", hh: 10, mm: 30, duration: 2, exclude: &existing.ID, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CheckNoOverlap(ctx, account, clock(tt.hh, tt.mm), tt.duration, tt.exclude)
			if err != nil {
				t.Fatalf("CheckNoOverlap: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CheckNoOverlap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateTaskToOwnIntervalSucceeds(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)
	account := newAccount(t, store)
	work := newCategory(t, store, account, "Work")

	task, err := svc.CreateTask(ctx, account, TaskInput{Title: "review", Start: clock(14, 0), Duration: 1.5, CategoryID: work.ID})
	if err != nil {
		t.Fatal(err)
	}
	updated, err := svc.UpdateTask(ctx, account, task.ID, TaskInput{Title: "code review", Start: clock(14, 0), Duration: 1.5, CategoryID: work.ID})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "code review" {
		t.Fatalf("title = %q", updated.Title)
	}
	if updated.Stamps.UpdatedBy == nil || *updated.Stamps.UpdatedBy != account {
		t.Fatalf("updated_by = %v, want %s", updated.Stamps.UpdatedBy, account)
	}
}

func TestOverlapIsScopedToAccount(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)

	alice := newAccount(t, store)
	bob := newAccount(t, store)
	aliceWork := newCategory(t, store, alice, "Work")
	bobWork := newCategory(t, store, bob, "Work")

	if _, err := svc.CreateTask(ctx, alice, TaskInput{Title: "a", Start: clock(9, 0), Duration: 1, CategoryID: aliceWork.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTask(ctx, bob, TaskInput{Title: "b", Start: clock(9, 0), Duration: 1, CategoryID: bobWork.ID}); err != nil {
		t.Fatalf("same slot in another account: %v", err)
	}
}

func TestTaskReferencesMustBelongToAccount(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)

	alice := newAccount(t, store)
	bob := newAccount(t, store)
	bobWork := newCategory(t, store, bob, "Work")

	_, err := svc.CreateTask(ctx, alice, TaskInput{Title: "x", Start: clock(9, 0), Duration: 1, CategoryID: bobWork.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	bobTask, err := svc.CreateTask(ctx, bob, TaskInput{Title: "y", Start: clock(9, 0), Duration: 1, CategoryID: bobWork.ID})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTask(ctx, alice, bobTask.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete foreign task err = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetTask(ctx, alice, bobTask.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get foreign task err = %v, want ErrNotFound", err)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)
	account := newAccount(t, store)
	work := newCategory(t, store, account, "Work")

	tests := []struct {
		name  string
		input TaskInput
		field string
	}{
		{name: "zero duration", input: TaskInput{Title: "t", Start: clock(9, 0), CategoryID: work.ID}, field: "duration"},
		{name: "negative duration", input: TaskInput{Title: "t", Start: clock(9, 0), Duration: -1, CategoryID: work.ID}, field: "duration"},
		{name: "blank title", input: TaskInput{Title: "  ", Start: clock(9, 0), Duration: 1, CategoryID: work.ID}, field: "title"},
		{name: "no start", input: TaskInput{Title: "t", Duration: 1, CategoryID: work.ID}, field: "start"},
		{name: "longer than a year", input: TaskInput{Title: "t", Start: clock(9, 0), Duration: maxDurationHours + 1, CategoryID: work.ID}, field: "duration"},
		{name: "duration past int64 nanoseconds", input: TaskInput{Title: "t", Start: clock(9, 0), Duration: 3e6, CategoryID: work.ID}, field: "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, account, tt.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("fields = %v, want %q", verr.Fields, tt.field)
			}
		})
	}

	if _, err := svc.CreateTask(ctx, uuid.Nil, TaskInput{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil account err = %v, want ErrUnauthorized", err)
	}
}

func TestHugeDurationCannotHideOverlap(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)
	account := newAccount(t, store)
	work := newCategory(t, store, account, "Work")

	if _, err := svc.CreateTask(ctx, account, TaskInput{Title: "meeting", Start: clock(9, 0), Duration: 1, CategoryID: work.ID}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateTask(ctx, account, TaskInput{Title: "forever", Start: clock(8, 0), Duration: 3e6, CategoryID: work.ID})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("huge duration err = %v, want ErrValidation", err)
	}

	free, err := svc.CheckNoOverlap(ctx, account, clock(12, 0), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !free {
		t.Fatal("12:00 reported busy after a rejected insert")
	}

	// The longest allowed task still conflicts with what it covers.
	_, err = svc.CreateTask(ctx, account, TaskInput{Title: "year", Start: clock(8, 0), Duration: maxDurationHours, CategoryID: work.ID})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("year-long task err = %v, want ErrConflict", err)
	}
}

func TestCreateFromTemplate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)
	account := newAccount(t, store)
	gym := newCategory(t, store, account, "Health")

	tpl, err := NewTemplateService(store).Create(ctx, account, TemplateInput{Title: "Gym", Duration: 1.5, CategoryID: gym.ID})
	if err != nil {
		t.Fatal(err)
	}

	task, err := svc.CreateFromTemplate(ctx, account, tpl.ID, clock(18, 0))
	if err != nil {
		t.Fatalf("CreateFromTemplate: %v", err)
	}
	if task.Title != "Gym" || task.Duration != 1.5 || task.CategoryID != gym.ID {
		t.Fatalf("task = %+v", task)
	}
	if task.TemplateID == nil || *task.TemplateID != tpl.ID {
		t.Fatalf("template id = %v", task.TemplateID)
	}

	if _, err := svc.CreateFromTemplate(ctx, account, tpl.ID, clock(19, 0)); !errors.Is(err, ErrConflict) {
		t.Fatalf("overlapping template task err = %v, want ErrConflict", err)
	}
	if _, err := svc.CreateFromTemplate(ctx, account, uuid.New(), clock(7, 0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown template err = %v, want ErrNotFound", err)
	}
}

func TestListInRange(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewTaskService(store)
	account := newAccount(t, store)
	work := newCategory(t, store, account, "Work")

	for _, start := range []int{8, 12, 23} {
		if _, err := svc.CreateTask(ctx, account, TaskInput{Title: "t", Start: clock(start, 0), Duration: 0.5, CategoryID: work.ID}); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := svc.ListInRange(ctx, account, clock(8, 0), clock(23, 0))
	if err != nil {
		t.Fatalf("ListInRange: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2 (end is exclusive)", len(tasks))
	}
	if !tasks[0].Start.Equal(clock(8, 0)) || !tasks[1].Start.Equal(clock(12, 0)) {
		t.Fatalf("unexpected order: %s, %s", tasks[0].Start, tasks[1].Start)
	}

	if _, err := svc.ListInRange(ctx, account, clock(9, 0), clock(9, 0)); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty range err = %v, want ErrValidation", err)
	}
}
