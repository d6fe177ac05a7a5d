package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/cache"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"github.com/yukikurage/company-task-api/internal/testutil"
	"gorm.io/gorm"
)

var testPolicy = cache.Policy{TaskList: 30 * time.Second, Analytics: 5 * time.Minute}

// fixture is a registered company ACME1 with admin A and employees E and F,
// plus admin O of company OTHER1.
type fixture struct {
	db       *gorm.DB
	ctx      context.Context
	cache    *cache.MemoryCache
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository

	admin, employee, other, outsider access.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	f := &fixture{
		db:       db,
		ctx:      context.Background(),
		cache:    cache.NewMemoryCache(),
		taskRepo: repository.NewTaskRepository(db),
		userRepo: repository.NewUserRepository(db),
	}

	companies := repository.NewCompanyRepository(db)
	f.admin = f.createMember(t, "alice", models.UserRoleAdmin, "ACME1")
	f.employee = f.createMember(t, "erin", models.UserRoleEmployee, "ACME1")
	f.other = f.createMember(t, "frank", models.UserRoleEmployee, "ACME1")
	f.outsider = f.createMember(t, "oscar", models.UserRoleAdmin, "OTHER1")

	require.NoError(t, companies.Create(f.ctx, &models.Company{Code: "ACME1", Name: "Acme", AdminID: f.admin.UserID}))
	require.NoError(t, companies.Create(f.ctx, &models.Company{Code: "OTHER1", Name: "Other", AdminID: f.outsider.UserID}))

	return f
}

func (f *fixture) createMember(t *testing.T, username string, role models.UserRole, company string) access.Principal {
	t.Helper()

	code := company
	user := &models.User{
		Username:             username,
		Email:                username + "@example.com",
		PasswordHash:         "hashed",
		Role:                 role,
		CompanyCode:          &code,
		RegistrationComplete: true,
	}
	require.NoError(t, f.userRepo.Create(f.ctx, user))
	return access.NewPrincipal(user)
}

func (f *fixture) countTasks(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&n).Error)
	return n
}

func uid(v uint64) *uint64 { return &v }

func due() *time.Time {
	d := time.Date(2030, 1, 15, 17, 0, 0, 0, time.UTC)
	return &d
}
