package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/cache"
	"github.com/yukikurage/company-task-api/internal/constants"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"github.com/yukikurage/company-task-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = apierrors.New(apierrors.ErrNotFound, "task not found")
	ErrNotTaskCreator         = apierrors.New(apierrors.ErrForbidden, "only the task creator or an admin can perform this action")
	ErrNotTaskAssignee        = apierrors.New(apierrors.ErrForbidden, "only the assignee or an admin can complete this task")
	ErrAdminOnly              = apierrors.New(apierrors.ErrForbidden, "only admins can perform this action")
	ErrTitleRequired          = apierrors.New(apierrors.ErrValidation, "title is required")
	ErrTitleTooLong           = apierrors.New(apierrors.ErrValidation, fmt.Sprintf("title must be at most %d characters", constants.MaxTitleLength))
	ErrDescriptionRequired    = apierrors.New(apierrors.ErrValidation, "description is required")
	ErrDueDateRequired        = apierrors.New(apierrors.ErrValidation, "due date is required")
	ErrInvalidPriority        = apierrors.New(apierrors.ErrValidation, "priority must be low, medium or high")
	ErrInvalidStatus          = apierrors.New(apierrors.ErrValidation, "status must be todo, in_progress or done")
	ErrAssigneeRequired       = apierrors.New(apierrors.ErrValidation, "assigned_to is required")
	ErrCommentRequired        = apierrors.New(apierrors.ErrValidation, "comment text is required")
	ErrCommentTooLong         = apierrors.New(apierrors.ErrValidation, fmt.Sprintf("comment must be at most %d characters", constants.MaxCommentLength))
	ErrSearchQueryRequired    = apierrors.New(apierrors.ErrValidation, "search query is required")
	ErrSearchQueryTooLong     = apierrors.New(apierrors.ErrValidation, fmt.Sprintf("search query must be at most %d characters", constants.MaxSearchQueryLen))
	ErrAssigneeUnknown        = apierrors.New(apierrors.ErrInvalidAssignment, "assignee does not exist")
	ErrAssigneeOtherCompany   = apierrors.New(apierrors.ErrInvalidAssignment, "assignee does not belong to the task's company")
	ErrAIServiceNotConfigured = apierrors.New(apierrors.ErrUnavailable, "AI service is not configured")
	ErrAITextRequired         = apierrors.New(apierrors.ErrValidation, "text is required")
	ErrAINoTasksGenerated     = apierrors.New(apierrors.ErrValidation, "AI did not generate any tasks")
	ErrAINoValidTasks         = apierrors.New(apierrors.ErrValidation, "no valid tasks could be created from AI output")
)

// TaskService applies the task lifecycle and serves the cached task views.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	cache    cache.Cache
	policy   cache.Policy
	drafter  TaskDrafter
	now      func() time.Time
}

// NewTaskService creates a new TaskService. drafter may be nil when AI drafting is not configured.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, c cache.Cache, policy cache.Policy, drafter TaskDrafter) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cache:    c,
		policy:   policy,
		drafter:  drafter,
		now:      time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    models.TaskPriority
	AssignedTo  *uint64
}

// UpdateTaskInput holds the fields to change. Nil fields are left untouched.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	DueDate       *time.Time
	Priority      *models.TaskPriority
	Status        *models.TaskStatus
	AssignedTo    *uint64
	ClearAssignee bool
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks    []models.Task `json:"tasks"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int64         `json:"total"`
}

// Create creates a task in the principal's company. When no assignee is
// given, employees are assigned their own task.
func (s *TaskService) Create(ctx context.Context, p access.Principal, input CreateTaskInput) (*models.Task, error) {
	if _, err := access.ResolveScope(p); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if input.DueDate == nil {
		return nil, ErrDueDateRequired
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	assignedTo := input.AssignedTo
	if assignedTo == nil && !p.IsAdmin() {
		self := p.UserID
		assignedTo = &self
	}
	if assignedTo != nil {
		if err := s.validateAssignee(ctx, p.CompanyCode, *assignedTo); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       title,
		Description: description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Status:      models.TaskStatusTodo,
		CompanyCode: p.CompanyCode,
		CreatedBy:   p.UserID,
		AssignedTo:  assignedTo,
		CreatedAt:   s.now(),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidate(ctx, task.CompanyCode)
	return s.reload(ctx, task.ID)
}

// CreateAssigned is the admin variant of Create; the assignee is mandatory.
func (s *TaskService) CreateAssigned(ctx context.Context, p access.Principal, input CreateTaskInput) (*models.Task, error) {
	if _, err := access.ResolveScope(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if input.AssignedTo == nil {
		return nil, ErrAssigneeRequired
	}
	return s.Create(ctx, p, input)
}

// Get returns a task visible to the principal. Tasks outside the principal's
// scope are reported as not found.
func (s *TaskService) Get(ctx context.Context, p access.Principal, taskID uint64) (*models.Task, error) {
	scope, err := access.ResolveScope(p)
	if err != nil {
		return nil, err
	}

	task, err := s.findTask(ctx, taskID, "Assignee")
	if err != nil {
		return nil, err
	}
	if !scope.Matches(task) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListActive returns the principal's tasks that are not done, earliest due date first.
func (s *TaskService) ListActive(ctx context.Context, p access.Principal, page, pageSize int) (*TaskPage, error) {
	scope, err := access.ResolveScope(p)
	if err != nil {
		return nil, err
	}
	return s.listCached(ctx, cache.ViewActive, repository.TaskFilter{
		Scope:    scope.Active(),
		Order:    repository.OrderByDueDate,
		Page:     page,
		PageSize: pageSize,
	})
}

// ListCompleted returns the principal's done tasks, most recently completed first.
// Employees only see completed tasks assigned to them.
func (s *TaskService) ListCompleted(ctx context.Context, p access.Principal, page, pageSize int) (*TaskPage, error) {
	scope, err := access.ResolveScope(p)
	if err != nil {
		return nil, err
	}
	return s.listCached(ctx, cache.ViewCompleted, repository.TaskFilter{
		Scope:    scope.Completed(),
		Order:    repository.OrderByCompletedAt,
		Page:     page,
		PageSize: pageSize,
	})
}

// Search matches query case-insensitively against the title and description
// of every task visible to the principal.
func (s *TaskService) Search(ctx context.Context, p access.Principal, query string, page, pageSize int) (*TaskPage, error) {
	scope, err := access.ResolveScope(p)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchQueryRequired
	}
	if len(query) > constants.MaxSearchQueryLen {
		return nil, ErrSearchQueryTooLong
	}

	return s.listCached(ctx, cache.ViewSearch, repository.TaskFilter{
		Scope:    scope,
		Search:   query,
		Order:    repository.OrderByCreatedAt,
		Page:     page,
		PageSize: pageSize,
	})
}

// Update applies a partial update. Only the creator or an admin may update a task.
// Moving a task into done stamps its completion time; moving it out again keeps it.
func (s *TaskService) Update(ctx context.Context, p access.Principal, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadForWrite(ctx, p, taskID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && task.CreatedBy != p.UserID {
		return nil, ErrNotTaskCreator
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, ErrDescriptionRequired
		}
		task.Description = description
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *input.Status == models.TaskStatusDone && task.Status != models.TaskStatusDone {
			now := s.now()
			task.CompletedAt = &now
		}
		task.Status = *input.Status
	}
	if input.ClearAssignee {
		task.AssignedTo = nil
	} else if input.AssignedTo != nil {
		if err := s.validateAssignee(ctx, task.CompanyCode, *input.AssignedTo); err != nil {
			return nil, err
		}
		assignee := *input.AssignedTo
		task.AssignedTo = &assignee
	}

	return s.save(ctx, task)
}

// Assign sets the task's assignee. Authorization follows Update.
func (s *TaskService) Assign(ctx context.Context, p access.Principal, taskID, assigneeID uint64) (*models.Task, error) {
	return s.Update(ctx, p, taskID, UpdateTaskInput{AssignedTo: &assigneeID})
}

// Complete marks a task done. Unlike Update, this is allowed for the assignee
// or an admin rather than the creator.
func (s *TaskService) Complete(ctx context.Context, p access.Principal, taskID uint64) (*models.Task, error) {
	task, err := s.loadForWrite(ctx, p, taskID)
	if err != nil {
		return nil, err
	}
	assigned := task.AssignedTo != nil && *task.AssignedTo == p.UserID
	if !p.IsAdmin() && !assigned {
		return nil, ErrNotTaskAssignee
	}

	now := s.now()
	task.Status = models.TaskStatusDone
	task.CompletedAt = &now

	return s.save(ctx, task)
}

// Delete permanently removes a task and its comments. Authorization follows Update.
func (s *TaskService) Delete(ctx context.Context, p access.Principal, taskID uint64) error {
	task, err := s.loadForWrite(ctx, p, taskID)
	if err != nil {
		return err
	}
	if !p.IsAdmin() && task.CreatedBy != p.UserID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.invalidate(ctx, task.CompanyCode)
	return nil
}

// AddComment appends a comment authored by the principal to a task it can see.
func (s *TaskService) AddComment(ctx context.Context, p access.Principal, taskID uint64, text string) (*models.TaskComment, error) {
	scope, err := access.ResolveScope(p)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	if len(text) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(task) {
		return nil, ErrTaskNotFound
	}

	comment := &models.TaskComment{
		TaskID: task.ID,
		Author: p.Username,
		Text:   text,
	}
	if err := s.taskRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.invalidate(ctx, task.CompanyCode)
	return comment, nil
}

// GenerateTasks drafts tasks from free text for an admin. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, p access.Principal, text string) ([]DraftTask, error) {
	if _, err := access.ResolveScope(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if s.drafter == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrAITextRequired
	}

	drafts, err := s.drafter.DraftTasks(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		return nil, apierrors.New(apierrors.ErrValidation,
			fmt.Sprintf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks))
	}

	valid := make([]DraftTask, 0, len(drafts))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, d := range drafts {
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" || len(d.Title) > constants.MaxTitleLength {
			continue
		}
		if d.DueDate != nil && d.DueDate.Before(cutoff) {
			d.DueDate = nil
		}
		if !d.Priority.Valid() {
			d.Priority = models.TaskPriorityMedium
		}
		valid = append(valid, d)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

func (s *TaskService) listCached(ctx context.Context, view cache.View, filter repository.TaskFilter) (*TaskPage, error) {
	params := utils.NewPaginationParams(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = params.Page, params.Limit

	variant := variantFor(filter.Scope) + ":" + strconv.Itoa(filter.Page) + ":" + strconv.Itoa(filter.PageSize)
	if filter.Search != "" {
		variant += ":" + strings.ToLower(filter.Search)
	}
	key := cache.Key{CompanyCode: filter.Scope.CompanyCode, View: view, Variant: variant}

	page, err := cache.GetOrCompute(ctx, s.cache, key, s.policy.TTL(view), func(ctx context.Context) (TaskPage, error) {
		tasks, total, err := s.taskRepo.List(ctx, filter)
		if err != nil {
			return TaskPage{}, fmt.Errorf("failed to list tasks: %w", err)
		}
		return TaskPage{Tasks: tasks, Page: filter.Page, PageSize: filter.PageSize, Total: total}, nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// loadForWrite fetches a task in the principal's company. Tasks of other
// companies are reported as not found before any role check.
func (s *TaskService) loadForWrite(ctx context.Context, p access.Principal, taskID uint64) (*models.Task, error) {
	if _, err := access.ResolveScope(p); err != nil {
		return nil, err
	}
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CompanyCode != p.CompanyCode {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	s.invalidate(ctx, task.CompanyCode)
	return s.reload(ctx, task.ID)
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) reload(ctx context.Context, taskID uint64) (*models.Task, error) {
	return s.findTask(ctx, taskID, "Assignee")
}

// validateAssignee checks that the user exists and belongs to companyCode.
func (s *TaskService) validateAssignee(ctx context.Context, companyCode string, userID uint64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeUnknown
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	if user.CompanyCode == nil || *user.CompanyCode != companyCode {
		return ErrAssigneeOtherCompany
	}
	return nil
}

// invalidate drops the company's cached views. A failure leaves entries to
// expire on their TTL.
func (s *TaskService) invalidate(ctx context.Context, companyCode string) {
	if err := s.cache.Invalidate(ctx, companyCode); err != nil {
		log.Error().Err(err).Str("company_code", companyCode).Msg("cache invalidation failed")
	}
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if len(title) > constants.MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}
