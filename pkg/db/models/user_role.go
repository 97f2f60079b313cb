package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/enums"
)

// UserRole grants a storefront role. A user without a row is a regular user.
type UserRole struct {
	ID     uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	UserID uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Role   enums.AppRole `gorm:"column:role;type:text;not null;default:'user'"`
}

func (r *UserRole) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
