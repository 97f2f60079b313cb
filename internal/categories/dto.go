package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
)

// CategoryDTO is the public category payload.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewCategoryDTO(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// CreateInput is the validated admin payload for a new category.
type CreateInput struct {
	Name        string
	Slug        string
	Description *string
	ImageURL    *string
}

// UpdateInput carries optional fields; nil leaves the column untouched.
type UpdateInput struct {
	Name        *string
	Slug        *string
	Description *string
	ImageURL    *string
}
