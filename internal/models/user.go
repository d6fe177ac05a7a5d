package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleEmployee UserRole = "employee"
)

type User struct {
	ID                   uint64         `gorm:"primarykey" json:"id"`
	Username             string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email                string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash         string         `gorm:"type:varchar(255);not null" json:"-"`
	Role                 UserRole       `gorm:"type:varchar(20);not null" json:"role"`
	CompanyCode          *string        `gorm:"type:varchar(16);index" json:"company_code"`
	RegistrationComplete bool           `gorm:"not null;default:false" json:"registration_complete"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}
