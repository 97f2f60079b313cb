package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AboutContent is the single row backing the about page.
type AboutContent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Title     string    `gorm:"column:title;not null"`
	Content   string    `gorm:"column:content;not null"`
	Mission   *string   `gorm:"column:mission"`
	Vision    *string   `gorm:"column:vision"`
	Values    *string   `gorm:"column:values"`
	ImageURL  *string   `gorm:"column:image_url"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AboutContent) TableName() string {
	return "about_content"
}

func (a *AboutContent) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
