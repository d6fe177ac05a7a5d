package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/dto"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/middleware"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/services"
	"github.com/yukikurage/company-task-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

type createTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description" binding:"required"`
	DueDate     *time.Time          `json:"due_date" binding:"required"`
	Priority    models.TaskPriority `json:"priority" binding:"required"`
	AssignedTo  *uint64             `json:"assigned_to"`
}

func (r createTaskRequest) input() services.CreateTaskInput {
	return services.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    r.Priority,
		AssignedTo:  r.AssignedTo,
	}
}

// ListActive returns the caller's tasks that are not done
func (h *TaskHandler) ListActive(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	page, err := h.taskService.ListActive(c.Request.Context(), principal, params.Page, params.Limit)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page.Tasks, page.Page, page.PageSize, page.Total))
}

// ListCompleted returns the caller's done tasks
func (h *TaskHandler) ListCompleted(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	page, err := h.taskService.ListCompleted(c.Request.Context(), principal, params.Page, params.Limit)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page.Tasks, page.Page, page.PageSize, page.Total))
}

// Search finds the caller's tasks by title or description
func (h *TaskHandler) Search(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	page, err := h.taskService.Search(c.Request.Context(), principal, c.Query("q"), params.Page, params.Limit)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page.Tasks, page.Page, page.PageSize, page.Total))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	principal, taskID, ok := taskRequest(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), principal, taskID)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task in the caller's company
func (h *TaskHandler) CreateTask(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), principal, req.input())
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// CreateAssignedTask creates a task assigned to a company member (admins only)
func (h *TaskHandler) CreateAssignedTask(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.CreateAssigned(c.Request.Context(), principal, req.input())
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. A null assigned_to unassigns the task; due_date cannot be cleared.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	principal, taskID, ok := taskRequest(c)
	if !ok {
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]json.RawMessage
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseUpdateRequest(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), principal, taskID, input)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// AssignTask sets the task's assignee
func (h *TaskHandler) AssignTask(c *gin.Context) {
	principal, taskID, ok := taskRequest(c)
	if !ok {
		return
	}

	type AssignRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), principal, taskID, req.UserID)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CompleteTask marks a task as done
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	principal, taskID, ok := taskRequest(c)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(c.Request.Context(), principal, taskID)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	principal, taskID, ok := taskRequest(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), principal, taskID); err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// AddComment appends a comment to a task
func (h *TaskHandler) AddComment(c *gin.Context) {
	principal, taskID, ok := taskRequest(c)
	if !ok {
		return
	}

	type CommentRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.taskService.AddComment(c.Request.Context(), principal, taskID, req.Text)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// GenerateTasks drafts task suggestions from text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.GenerateTasks(c.Request.Context(), principal, req.Text)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}

// parseUpdateRequest decodes the fields present in an update body.
// company_code and created_by are ignored.
func parseUpdateRequest(raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if v, ok := raw["title"]; ok {
		if err := json.Unmarshal(v, &input.Title); err != nil || input.Title == nil {
			return input, errInvalidField("title")
		}
	}
	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &input.Description); err != nil || input.Description == nil {
			return input, errInvalidField("description")
		}
	}
	if v, ok := raw["priority"]; ok {
		if err := json.Unmarshal(v, &input.Priority); err != nil || input.Priority == nil {
			return input, errInvalidField("priority")
		}
	}
	if v, ok := raw["status"]; ok {
		if err := json.Unmarshal(v, &input.Status); err != nil || input.Status == nil {
			return input, errInvalidField("status")
		}
	}
	if v, ok := raw["due_date"]; ok {
		if err := json.Unmarshal(v, &input.DueDate); err != nil {
			return input, errInvalidField("due_date")
		}
		if input.DueDate == nil {
			return input, services.ErrDueDateRequired
		}
	}
	if v, ok := raw["assigned_to"]; ok {
		if err := json.Unmarshal(v, &input.AssignedTo); err != nil {
			return input, errInvalidField("assigned_to")
		}
		input.ClearAssignee = input.AssignedTo == nil
	}

	return input, nil
}

func errInvalidField(name string) error {
	return fmt.Errorf("Invalid value for %s", name)
}

// principalOrAbort returns the principal set by RequireAuth.
func principalOrAbort(c *gin.Context) (access.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return access.Principal{}, false
	}
	return principal, true
}

// taskRequest returns the principal and the task ID set by RequireTaskID.
func taskRequest(c *gin.Context) (access.Principal, uint64, bool) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return access.Principal{}, 0, false
	}
	taskID, ok := middleware.GetTaskID(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return access.Principal{}, 0, false
	}
	return principal, taskID, true
}
