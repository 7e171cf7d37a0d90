package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a time-boxed entry in the calendar.
type Task struct {
	ID         uuid.UUID  `gorm:"type:varchar(36);primaryKey"`
	AccountID  uuid.UUID  `gorm:"type:varchar(36);not null;index:idx_account_task_start,priority:1"`
	CategoryID uuid.UUID  `gorm:"type:varchar(36);not null;index"`
	TemplateID *uuid.UUID `gorm:"type:varchar(36);index"`
	Title      string     `gorm:"size:200;not null"`
	Start      time.Time  `gorm:"column:start_at;not null;index:idx_account_task_start,priority:2"`
	Duration   float64    `gorm:"not null"` // hours
	Stamps     Stamps     `gorm:"embedded"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Task) AuditStamps() *Stamps { return &t.Stamps }

// End returns the exclusive end of the task.
func (t *Task) End() time.Time {
	return t.Start.Add(Hours(t.Duration))
}

// Hours converts a fractional hour count into a time.Duration. Non-positive
// and NaN counts give 0; counts past the int64 range saturate.
func Hours(h float64) time.Duration {
	ns := h * float64(time.Hour)
	switch {
	case math.IsNaN(ns) || ns <= 0:
		return 0
	case ns >= math.MaxInt64:
		return math.MaxInt64
	}
	return time.Duration(ns)
}
