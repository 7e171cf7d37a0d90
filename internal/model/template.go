package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskTemplate is a reusable blueprint for tasks.
type TaskTemplate struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	AccountID  uuid.UUID `gorm:"type:varchar(36);not null;index"`
	CategoryID uuid.UUID `gorm:"type:varchar(36);not null;index"`
	Title      string    `gorm:"size:200;not null"`
	Duration   float64   `gorm:"not null"` // hours
	Stamps     Stamps    `gorm:"embedded"`
}

func (t *TaskTemplate) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *TaskTemplate) AuditStamps() *Stamps { return &t.Stamps }
