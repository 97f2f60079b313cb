package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/seedshop-backend/internal/repo"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
)

// Repository exposes profile and role persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ProfileWithRole is a profile row joined with its role.
type ProfileWithRole struct {
	models.Profile
	Role *enums.AppRole `gorm:"column:role"`
}

// FindProfile loads the profile keyed by the identity provider's user id.
func (r *Repository) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.DB(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// RoleFor returns the stored role, defaulting to user when no row exists.
func (r *Repository) RoleFor(ctx context.Context, userID uuid.UUID) (enums.AppRole, error) {
	var row models.UserRole
	err := r.DB(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return enums.AppRoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return row.Role, nil
}

// ListProfilesWithRoles returns every profile, newest first, with its role.
func (r *Repository) ListProfilesWithRoles(ctx context.Context) ([]ProfileWithRole, error) {
	var rows []ProfileWithRole
	err := r.DB(ctx).
		Table("profiles").
		Select("profiles.*, user_roles.role AS role").
		Joins("LEFT JOIN user_roles ON user_roles.user_id = profiles.id").
		Order("profiles.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// UpsertRole updates the user's role row or inserts one.
func (r *Repository) UpsertRole(ctx context.Context, userID uuid.UUID, role enums.AppRole) error {
	row := models.UserRole{UserID: userID, Role: role}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&row).Error
}
