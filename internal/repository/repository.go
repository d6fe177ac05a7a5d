package repository

import (
	"context"

	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/models"
)

// TaskOrder selects the sort order of a task listing.
type TaskOrder uint8

const (
	// OrderByCreatedAt sorts newest first.
	OrderByCreatedAt TaskOrder = iota
	// OrderByDueDate sorts by due date ascending with undated tasks last.
	OrderByDueDate
	// OrderByCompletedAt sorts most recently completed first.
	OrderByCompletedAt
)

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Scope    access.Scope
	Search   string
	Order    TaskOrder
	Page     int
	PageSize int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves the tasks matching the filter's scope, with pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListSummaries retrieves the fields needed for aggregation for every task in scope
	ListSummaries(ctx context.Context, scope access.Scope) ([]models.Task, error)

	// Update saves every column of the task
	Update(ctx context.Context, task *models.Task) error

	// Delete permanently removes a task and its comments
	Delete(ctx context.Context, id uint64) error

	// AddComment appends a comment to a task
	AddComment(ctx context.Context, comment *models.TaskComment) error
}

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	// Create creates a new company
	Create(ctx context.Context, company *models.Company) error

	// FindByCode finds a company by its code
	FindByCode(ctx context.Context, code string) (*models.Company, error)

	// ExistsByCode reports whether a company already uses the code
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves every column of the user
	Update(ctx context.Context, user *models.User) error

	// ListByCompany lists the users registered in a company
	ListByCompany(ctx context.Context, companyCode string) ([]models.User, error)
}
