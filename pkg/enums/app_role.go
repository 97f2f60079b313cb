package enums

import (
	"fmt"
	"strings"
)

// AppRole is the storefront-wide permission role stored in user_roles.
type AppRole string

const (
	AppRoleAdmin AppRole = "admin"
	AppRoleUser  AppRole = "user"
)

var validAppRoles = []AppRole{
	AppRoleAdmin,
	AppRoleUser,
}

func (r AppRole) String() string {
	return string(r)
}

func (r AppRole) IsValid() bool {
	for _, candidate := range validAppRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAppRole converts raw input into an AppRole.
func ParseAppRole(value string) (AppRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validAppRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid app role %q", value)
}
