package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/database"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with optional preloading.
// Comments are always loaded in insertion order.
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx).Preload("Comments", orderComments)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks within the filter's scope with pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := applyScope(r.db.WithContext(ctx).Model(&models.Task{}), filter.Scope)

	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("(LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?)", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	switch filter.Order {
	case OrderByDueDate:
		listQuery = listQuery.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC, tasks.id ASC")
	case OrderByCompletedAt:
		listQuery = listQuery.Order("tasks.completed_at DESC, tasks.id DESC")
	default:
		listQuery = listQuery.Order("tasks.created_at DESC, tasks.id DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListSummaries retrieves the aggregation fields of every task in scope
func (r *GormTaskRepository) ListSummaries(ctx context.Context, scope access.Scope) ([]models.Task, error) {
	var tasks []models.Task
	err := applyScope(r.db.WithContext(ctx).Model(&models.Task{}), scope).
		Select("tasks.id", "tasks.status", "tasks.priority", "tasks.company_code",
			"tasks.created_by", "tasks.assigned_to", "tasks.created_at", "tasks.completed_at").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update saves every column of the task. Associations are not touched.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

// Delete permanently removes a task and its comments
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		result := tx.Unscoped().Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddComment appends a comment to a task
func (r *GormTaskRepository) AddComment(ctx context.Context, comment *models.TaskComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func orderComments(db *gorm.DB) *gorm.DB {
	return db.Order("task_comments.created_at ASC, task_comments.id ASC")
}

// applyScope translates a visibility scope into WHERE clauses.
func applyScope(query *gorm.DB, scope access.Scope) *gorm.DB {
	query = query.Scopes(database.ForCompany("tasks", scope.CompanyCode))

	switch scope.Status {
	case access.NotDone:
		query = query.Where("tasks.status <> ?", models.TaskStatusDone)
	case access.OnlyDone:
		query = query.Where("tasks.status = ?", models.TaskStatusDone)
	}

	switch scope.Visibility {
	case access.VisibleCreatorOrAssignee:
		query = query.Where("(tasks.created_by = ? OR tasks.assigned_to = ?)", scope.UserID, scope.UserID)
	case access.VisibleAssignee:
		query = query.Where("tasks.assigned_to = ?", scope.UserID)
	}

	return query
}
