package dto

import (
	"time"

	"github.com/yukikurage/company-task-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                   uint64          `json:"id"`
	Username             string          `json:"username"`
	Email                string          `json:"email"`
	Role                 models.UserRole `json:"role"`
	CompanyCode          *string         `json:"company_code"`
	RegistrationComplete bool            `json:"registration_complete"`
}

// MemberDTO represents a company member in listings
type MemberDTO struct {
	ID       uint64          `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
}

// CompanyDTO represents a company in API responses
type CompanyDTO struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	AdminID   uint64    `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by login and registration completion.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

// CompleteRegistrationResponse adds the joined or created company to AuthResponse.
type CompleteRegistrationResponse struct {
	AuthResponse
	Company CompanyDTO `json:"company"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:                   user.ID,
		Username:             user.Username,
		Email:                user.Email,
		Role:                 user.Role,
		CompanyCode:          user.CompanyCode,
		RegistrationComplete: user.RegistrationComplete,
	}
}

// ToMemberDTOs converts company members
func ToMemberDTOs(users []models.User) []MemberDTO {
	members := make([]MemberDTO, len(users))
	for i, u := range users {
		members[i] = MemberDTO{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
		}
	}
	return members
}

// ToCompanyDTO converts a Company model to CompanyDTO
func ToCompanyDTO(company models.Company) CompanyDTO {
	return CompanyDTO{
		Code:      company.Code,
		Name:      company.Name,
		AdminID:   company.AdminID,
		CreatedAt: company.CreatedAt,
	}
}
