package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
)

func uid(v uint64) *uint64 { return &v }

func TestResolveScope_Admin(t *testing.T) {
	scope, err := ResolveScope(Principal{UserID: 1, Role: RoleAdmin, CompanyCode: "ACME1"})
	require.NoError(t, err)
	assert.Equal(t, Scope{CompanyCode: "ACME1", Visibility: VisibleCompany}, scope)
}

func TestResolveScope_Employee(t *testing.T) {
	scope, err := ResolveScope(Principal{UserID: 7, Role: RoleEmployee, CompanyCode: "ACME1"})
	require.NoError(t, err)
	assert.Equal(t, VisibleCreatorOrAssignee, scope.Visibility)
	assert.Equal(t, uint64(7), scope.UserID)
}

func TestResolveScope_IncompleteRegistration(t *testing.T) {
	_, err := ResolveScope(Principal{UserID: 7, Role: RoleEmployee})
	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
}

func TestResolveScope_UnknownRole(t *testing.T) {
	_, err := ResolveScope(Principal{UserID: 7, CompanyCode: "ACME1"})
	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
}

func TestScope_Matches(t *testing.T) {
	const me = uint64(7)
	employee, err := ResolveScope(Principal{UserID: me, Role: RoleEmployee, CompanyCode: "ACME1"})
	require.NoError(t, err)
	admin, err := ResolveScope(Principal{UserID: 1, Role: RoleAdmin, CompanyCode: "ACME1"})
	require.NoError(t, err)

	createdOpen := &models.Task{CompanyCode: "ACME1", CreatedBy: me, AssignedTo: uid(9), Status: models.TaskStatusTodo}
	createdDone := &models.Task{CompanyCode: "ACME1", CreatedBy: me, AssignedTo: uid(9), Status: models.TaskStatusDone}
	assignedDone := &models.Task{CompanyCode: "ACME1", CreatedBy: 9, AssignedTo: uid(me), Status: models.TaskStatusDone}
	assignedOpen := &models.Task{CompanyCode: "ACME1", CreatedBy: 9, AssignedTo: uid(me), Status: models.TaskStatusInProgress}
	unrelated := &models.Task{CompanyCode: "ACME1", CreatedBy: 9, Status: models.TaskStatusTodo}
	otherCompany := &models.Task{CompanyCode: "OTHER", CreatedBy: me, Status: models.TaskStatusTodo}

	tests := []struct {
		name  string
		scope Scope
		task  *models.Task
		want  bool
	}{
		{"employee sees own task", employee, createdOpen, true},
		{"employee sees assigned task", employee, assignedOpen, true},
		{"employee does not see unrelated task", employee, unrelated, false},
		{"employee never sees other company", employee, otherCompany, false},
		{"employee active includes created open", employee.Active(), createdOpen, true},
		{"employee active excludes done", employee.Active(), createdDone, false},
		{"employee completed includes assigned done", employee.Completed(), assignedDone, true},
		{"employee completed excludes created done", employee.Completed(), createdDone, false},
		{"employee completed excludes open", employee.Completed(), assignedOpen, false},
		{"admin sees unrelated task", admin, unrelated, true},
		{"admin completed includes created done", admin.Completed(), createdDone, true},
		{"admin never sees other company", admin, otherCompany, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Matches(tt.task))
		})
	}
}

func TestNewPrincipal(t *testing.T) {
	code := "ACME1"
	p := NewPrincipal(&models.User{ID: 3, Username: "eve", Role: models.UserRoleAdmin, CompanyCode: &code})
	assert.Equal(t, Principal{UserID: 3, Username: "eve", Role: RoleAdmin, CompanyCode: "ACME1"}, p)
	assert.True(t, p.IsAdmin())

	p = NewPrincipal(&models.User{ID: 4, Username: "bob", Role: models.UserRoleEmployee})
	assert.False(t, p.HasCompany())
	assert.Equal(t, "employee", p.Role.String())
}
