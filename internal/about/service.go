package about

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/internal/repo"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
)

// ContentDTO is the about page payload.
type ContentDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mission   *string   `json:"mission,omitempty"`
	Vision    *string   `json:"vision,omitempty"`
	Values    *string   `json:"values,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateInput carries optional fields; nil leaves the column untouched.
type UpdateInput struct {
	Title    *string
	Content  *string
	Mission  *string
	Vision   *string
	Values   *string
	ImageURL *string
}

// Service reads and edits the single about_content row.
type Service interface {
	Get(ctx context.Context) (*ContentDTO, error)
	Update(ctx context.Context, input UpdateInput) (*ContentDTO, error)
}

type service struct {
	repo.Base
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{Base: repo.NewBase(db)}, nil
}

func (s *service) Get(ctx context.Context) (*ContentDTO, error) {
	row, err := s.load(ctx, s.DB(ctx))
	if err != nil {
		return nil, repo.NotFound(err, "about content")
	}
	return newContentDTO(row), nil
}

// Update edits the existing row, creating it on first use.
func (s *service) Update(ctx context.Context, input UpdateInput) (*ContentDTO, error) {
	var saved *models.AboutContent
	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.load(ctx, tx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = &models.AboutContent{}
		} else if err != nil {
			return err
		}
		apply(row, input)
		if strings.TrimSpace(row.Title) == "" || strings.TrimSpace(row.Content) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "title and content are required")
		}
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		saved = row
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save about content")
	}
	return newContentDTO(saved), nil
}

func (s *service) load(ctx context.Context, db *gorm.DB) (*models.AboutContent, error) {
	var row models.AboutContent
	if err := db.WithContext(ctx).Order("updated_at DESC").First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func apply(row *models.AboutContent, input UpdateInput) {
	if input.Title != nil {
		row.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		row.Content = *input.Content
	}
	if input.Mission != nil {
		row.Mission = input.Mission
	}
	if input.Vision != nil {
		row.Vision = input.Vision
	}
	if input.Values != nil {
		row.Values = input.Values
	}
	if input.ImageURL != nil {
		row.ImageURL = input.ImageURL
	}
}

func newContentDTO(row *models.AboutContent) *ContentDTO {
	return &ContentDTO{
		ID:        row.ID,
		Title:     row.Title,
		Content:   row.Content,
		Mission:   row.Mission,
		Vision:    row.Vision,
		Values:    row.Values,
		ImageURL:  row.ImageURL,
		UpdatedAt: row.UpdatedAt,
	}
}
