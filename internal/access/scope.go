package access

import (
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
)

var (
	ErrRegistrationIncomplete = apierrors.New(apierrors.ErrUnauthorized, "registration is not complete")
	ErrUnknownRole            = apierrors.New(apierrors.ErrUnauthorized, "unknown role")
)

// Visibility selects which of a company's tasks a scope includes.
type Visibility uint8

const (
	// VisibleCompany includes every task of the company.
	VisibleCompany Visibility = iota
	// VisibleCreatorOrAssignee includes tasks created by or assigned to UserID.
	VisibleCreatorOrAssignee
	// VisibleAssignee includes tasks assigned to UserID.
	VisibleAssignee
)

// StatusFilter partitions a scope by completion.
type StatusFilter uint8

const (
	AnyStatus StatusFilter = iota
	NotDone
	OnlyDone
)

// Scope is the predicate over tasks that a principal may read or write.
type Scope struct {
	CompanyCode string
	Visibility  Visibility
	UserID      uint64
	Status      StatusFilter
}

// ResolveScope returns the base visibility predicate for p.
func ResolveScope(p Principal) (Scope, error) {
	if !p.HasCompany() {
		return Scope{}, ErrRegistrationIncomplete
	}

	switch p.Role {
	case RoleAdmin:
		return Scope{CompanyCode: p.CompanyCode, Visibility: VisibleCompany}, nil
	case RoleEmployee:
		return Scope{CompanyCode: p.CompanyCode, Visibility: VisibleCreatorOrAssignee, UserID: p.UserID}, nil
	default:
		return Scope{}, ErrUnknownRole
	}
}

// Active narrows s to tasks that are not done.
func (s Scope) Active() Scope {
	s.Status = NotDone
	return s
}

// Completed narrows s to done tasks. Employees only see completed tasks
// assigned to them, not the ones they created for someone else.
func (s Scope) Completed() Scope {
	s.Status = OnlyDone
	if s.Visibility == VisibleCreatorOrAssignee {
		s.Visibility = VisibleAssignee
	}
	return s
}

// Matches evaluates the predicate against a single task.
func (s Scope) Matches(task *models.Task) bool {
	if task.CompanyCode != s.CompanyCode {
		return false
	}

	switch s.Status {
	case NotDone:
		if task.Status == models.TaskStatusDone {
			return false
		}
	case OnlyDone:
		if task.Status != models.TaskStatusDone {
			return false
		}
	}

	assigned := task.AssignedTo != nil && *task.AssignedTo == s.UserID
	switch s.Visibility {
	case VisibleCompany:
		return true
	case VisibleCreatorOrAssignee:
		return task.CreatedBy == s.UserID || assigned
	case VisibleAssignee:
		return assigned
	default:
		return false
	}
}
