package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/seedshop-backend/pkg/enums"
)

// UserDTO is a profile with its storefront role.
type UserDTO struct {
	ID        uuid.UUID     `json:"id"`
	Email     string        `json:"email,omitempty"`
	FullName  *string       `json:"full_name,omitempty"`
	Phone     *string       `json:"phone,omitempty"`
	AvatarURL *string       `json:"avatar_url,omitempty"`
	Role      enums.AppRole `json:"role"`
	IsAdmin   bool          `json:"is_admin"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
}

func newUserDTO(row ProfileWithRole) UserDTO {
	role := enums.AppRoleUser
	if row.Role != nil && row.Role.IsValid() {
		role = *row.Role
	}
	created := row.CreatedAt
	return UserDTO{
		ID:        row.ID,
		FullName:  row.FullName,
		Phone:     row.Phone,
		AvatarURL: row.AvatarURL,
		Role:      role,
		IsAdmin:   role == enums.AppRoleAdmin,
		CreatedAt: &created,
	}
}
