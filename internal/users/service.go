package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
)

// Service serves the account endpoint, role lookups and admin role management.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID, email string) (*UserDTO, error)
	RoleFor(ctx context.Context, userID uuid.UUID) (enums.AppRole, error)
	List(ctx context.Context) ([]UserDTO, error)
	SetRole(ctx context.Context, userID uuid.UUID, role enums.AppRole) (*UserDTO, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Me returns the caller's profile. Users without a profile row still get
// their id, email and role.
func (s *service) Me(ctx context.Context, userID uuid.UUID, email string) (*UserDTO, error) {
	role, err := s.RoleFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := UserDTO{ID: userID, Role: role, IsAdmin: role == enums.AppRoleAdmin}

	profile, err := s.repo.FindProfile(ctx, userID)
	switch {
	case err == nil:
		dto = newUserDTO(ProfileWithRole{Profile: *profile, Role: &role})
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	dto.Email = email
	return &dto, nil
}

func (s *service) RoleFor(ctx context.Context, userID uuid.UUID) (enums.AppRole, error) {
	role, err := s.repo.RoleFor(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role")
	}
	return role, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.ListProfilesWithRoles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newUserDTO(row))
	}
	return out, nil
}

// SetRole upserts the role of an existing profile.
func (s *service) SetRole(ctx context.Context, userID uuid.UUID, role enums.AppRole) (*UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if err := s.repo.UpsertRole(ctx, userID, role); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert role")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"target_user_id": userID.String(), "role": role})
		s.logg.Info(logCtx, "user role updated")
	}
	dto := newUserDTO(ProfileWithRole{Profile: *profile, Role: &role})
	return &dto, nil
}
