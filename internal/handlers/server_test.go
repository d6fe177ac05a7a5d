package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/company-task-api/internal/cache"
	"github.com/yukikurage/company-task-api/internal/constants"
	"github.com/yukikurage/company-task-api/internal/dto"
	"github.com/yukikurage/company-task-api/internal/middleware"
	"github.com/yukikurage/company-task-api/internal/repository"
	"github.com/yukikurage/company-task-api/internal/services"
	"github.com/yukikurage/company-task-api/internal/testutil"
	"github.com/yukikurage/company-task-api/internal/token"
	"gorm.io/gorm"
)

// apiTestEnv serves the full route table over an in-memory database.
type apiTestEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	cache  *cache.MemoryCache
}

type member struct {
	token   string
	user    dto.UserDTO
	company string
}

func newAPITestEnv(t *testing.T, drafter services.TaskDrafter) *apiTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	memCache := cache.NewMemoryCache()
	policy := cache.Policy{TaskList: 30 * time.Second, Analytics: 5 * time.Minute}

	tokens, err := token.NewManager("test-secret", "company-task-api", time.Hour)
	require.NoError(t, err)

	identity := services.NewIdentityService(userRepo, companyRepo, services.IdentityOptions{})
	taskService := services.NewTaskService(taskRepo, userRepo, memCache, policy, drafter)
	analyticsService := services.NewAnalyticsService(taskRepo, memCache, policy)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	Routes{
		Auth:        NewAuthHandler(identity, tokens),
		Tasks:       NewTaskHandler(taskService),
		Company:     NewCompanyHandler(identity),
		Analytics:   NewAnalyticsHandler(analyticsService),
		RequireAuth: middleware.RequireAuth(identity, tokens),
	}.Register(r)

	return &apiTestEnv{t: t, db: db, router: r, cache: memCache}
}

// do sends a JSON request, authenticated with a bearer token when one is given.
func (e *apiTestEnv) do(method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	e.t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// register signs a user up and logs them in without completing registration.
func (e *apiTestEnv) register(username, role string) member {
	e.t.Helper()

	w := e.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	}, "")
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/auth/login", gin.H{
		"username": username,
		"password": "password123",
	}, "")
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	auth := decode[dto.AuthResponse](e.t, w)
	return member{token: auth.AccessToken, user: auth.User}
}

// admin registers an admin and creates their company.
func (e *apiTestEnv) admin(username, companyName string) member {
	e.t.Helper()

	m := e.register(username, "admin")
	w := e.do(http.MethodPost, "/api/auth/complete-registration", gin.H{"company_name": companyName}, m.token)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.CompleteRegistrationResponse](e.t, w)
	return member{token: resp.AccessToken, user: resp.User, company: resp.Company.Code}
}

// employee registers an employee and joins companyCode.
func (e *apiTestEnv) employee(username, companyCode string) member {
	e.t.Helper()

	m := e.register(username, "employee")
	w := e.do(http.MethodPost, "/api/auth/complete-registration", gin.H{"company_code": companyCode}, m.token)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.CompleteRegistrationResponse](e.t, w)
	return member{token: resp.AccessToken, user: resp.User, company: resp.Company.Code}
}

func (e *apiTestEnv) createTask(m member, title string, assignee *uint64) dto.TaskDTO {
	e.t.Helper()

	body := gin.H{
		"title":       title,
		"description": title + " description",
		"due_date":    time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC),
		"priority":    "high",
	}
	if assignee != nil {
		body["assigned_to"] = *assignee
	}

	w := e.do(http.MethodPost, "/api/tasks", body, m.token)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskDTO](e.t, w)
}
