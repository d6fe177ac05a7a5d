package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/company-task-api/internal/models"
)

func TestToTaskDTO_AssigneeName(t *testing.T) {
	assignee := uint64(7)
	task := models.Task{
		ID:         1,
		Title:      "Report",
		AssignedTo: &assignee,
		Assignee:   &models.User{ID: 7, Username: "erin"},
		Comments: []models.TaskComment{
			{Author: "alice", Text: "please", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	dto := ToTaskDTO(task)

	assert.Equal(t, "erin", dto.AssignedToName)
	assert.Equal(t, []CommentDTO{{Author: "alice", Text: "please", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}, dto.Comments)
}

func TestToTaskListResponse_TotalPages(t *testing.T) {
	tests := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}

	for _, tt := range tests {
		resp := ToTaskListResponse(nil, 1, tt.size, tt.total)
		assert.Equal(t, tt.want, resp.TotalPages)
		assert.NotNil(t, resp.Tasks)
	}
}
