package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task rows are removed permanently on delete, so there is no DeletedAt column.
type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	DueDate     *time.Time   `json:"due_date"`
	Priority    TaskPriority `gorm:"type:varchar(20);index" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);index;not null;default:'todo'" json:"status"`
	CompanyCode string       `gorm:"type:varchar(16);index;not null" json:"company_code"`
	CreatedBy   uint64       `gorm:"index;not null" json:"created_by"`
	AssignedTo  *uint64      `gorm:"index" json:"assigned_to"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`

	// Relations
	Creator  User          `gorm:"foreignKey:CreatedBy" json:"-"`
	Assignee *User         `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Comments []TaskComment `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}
