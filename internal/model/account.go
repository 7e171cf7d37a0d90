package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account owns categories, templates and tasks.
type Account struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	Email        string    `gorm:"size:254;uniqueIndex"`
	PasswordHash string    `gorm:"size:100"`
	TokenHash    string    `gorm:"size:64;uniqueIndex"`
	TelegramID   *int64    `gorm:"uniqueIndex"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
