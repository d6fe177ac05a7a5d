package models

import "time"

// TaskComment is append-only; rows are never updated.
type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"index;not null" json:"task_id"`
	Author    string    `gorm:"type:varchar(50);not null" json:"author"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}
