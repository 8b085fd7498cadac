package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	base.EnsureID()
	return nil
}

// EnsureID assigns a new UUID when the row has none yet.
func (base *BaseModel) EnsureID() {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
}

// AllModels lists every model managed by auto-migration.
func AllModels() []any {
	return []any{&User{}, &Appointment{}}
}
