package model

import (
	"time"

	"github.com/google/uuid"
)

// Auditable is implemented by entities whose writes are stamped with the acting account.
type Auditable interface {
	AuditStamps() *Stamps
}

// Stamps holds creation and modification audit fields.
type Stamps struct {
	CreatedAt time.Time
	CreatedBy uuid.UUID `gorm:"type:varchar(36)"`
	UpdatedAt *time.Time
	UpdatedBy *uuid.UUID `gorm:"type:varchar(36)"`
}
