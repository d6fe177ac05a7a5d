package models

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Code      string         `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	AdminID   uint64         `gorm:"not null" json:"admin_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Admin User `gorm:"foreignKey:AdminID" json:"-"`
}
