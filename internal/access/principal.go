// Package access resolves who is calling and which tasks they may see.
package access

import (
	"github.com/yukikurage/company-task-api/internal/models"
)

// Role is the caller's role within their company.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleEmployee
)

// ParseRole converts a stored user role into a Role.
func ParseRole(r models.UserRole) (Role, bool) {
	switch r {
	case models.UserRoleAdmin:
		return RoleAdmin, true
	case models.UserRoleEmployee:
		return RoleEmployee, true
	default:
		return RoleUnknown, false
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return string(models.UserRoleAdmin)
	case RoleEmployee:
		return string(models.UserRoleEmployee)
	default:
		return "unknown"
	}
}

// MarshalText lets roles appear as strings in JSON.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Principal is the authenticated identity attached to a request.
// CompanyCode is empty until the user has completed registration.
type Principal struct {
	UserID      uint64
	Username    string
	Role        Role
	CompanyCode string
}

// NewPrincipal builds a principal from a stored user.
func NewPrincipal(user *models.User) Principal {
	role, _ := ParseRole(user.Role)
	p := Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     role,
	}
	if user.CompanyCode != nil {
		p.CompanyCode = *user.CompanyCode
	}
	return p
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) HasCompany() bool {
	return p.CompanyCode != ""
}
