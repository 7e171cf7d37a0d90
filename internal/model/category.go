package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FallbackCategoryName is the reserved category that absorbs dependents of a deleted one.
const FallbackCategoryName = "Other"

// FallbackCategoryColor is the color of a lazily created fallback category.
const FallbackCategoryColor = "#8B949E"

// Category groups tasks and templates (work, health, study, etc.).
type Category struct {
	ID        uuid.UUID      `gorm:"type:varchar(36);primaryKey"`
	AccountID uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex:idx_account_category_name,where:deleted_at IS NULL"`
	Name      string         `gorm:"size:100;not null;uniqueIndex:idx_account_category_name,where:deleted_at IS NULL"`
	Color     string         `gorm:"size:7;not null"`
	Stamps    Stamps         `gorm:"embedded"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
	DeletedBy *uuid.UUID     `gorm:"type:varchar(36)"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Category) AuditStamps() *Stamps { return &c.Stamps }

// IsFallback reports whether c is the reserved "Other" category.
func (c *Category) IsFallback() bool {
	return c.Name == FallbackCategoryName
}
