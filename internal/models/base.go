package models

import (
	"time"

	"finsight/internal/uuid"

	"gorm.io/gorm"
)

// Base carries the columns shared by every table: a string UUID primary key,
// timestamps, and a soft-delete marker. Rows are never hard-deleted through
// the ORM.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns a time-ordered UUIDv7 key, leaving preassigned IDs
// untouched so fixtures can pin their own.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
