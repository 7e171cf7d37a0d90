package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"time-planner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.Start = task.Start.UTC()
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateBatch inserts tasks in one batch; ids are filled in place.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	for i := range tasks {
		tasks[i].Start = tasks[i].Start.UTC()
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&tasks, 100).Error; err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}
	return nil
}

// ListByAccount returns every task of the account, optionally without excludeID.
func (r *TaskRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, excludeID *uuid.UUID) ([]model.Task, error) {
	query := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var tasks []model.Task
	if err := query.Order("start_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListStartingIn returns tasks with from <= start < to.
func (r *TaskRepository) ListStartingIn(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND start_at >= ? AND start_at < ?", accountID, from.UTC(), to.UTC()).
		Order("start_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, accountID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("account_id = ? AND id = ?", accountID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	task.Start = task.Start.UTC()
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// Delete removes a task for the given account.
func (r *TaskRepository) Delete(ctx context.Context, accountID, taskID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("account_id = ? AND id = ?", accountID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReassignCategory moves every task of category from onto category to.
func (r *TaskRepository) ReassignCategory(ctx context.Context, accountID, from, to uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("account_id = ? AND category_id = ?", accountID, from).
		Update("category_id", to)
	if res.Error != nil {
		return 0, fmt.Errorf("reassign tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}
