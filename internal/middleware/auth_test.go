package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/constants"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/token"
)

type fakeResolver map[uint64]access.Principal

func (f fakeResolver) ResolvePrincipal(_ context.Context, userID uint64) (access.Principal, error) {
	p, ok := f[userID]
	if !ok {
		return access.Principal{}, apierrors.New(apierrors.ErrUnauthorized, "user no longer exists")
	}
	return p, nil
}

func newRouter(t *testing.T, resolver PrincipalResolver, tokens *token.Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	protected := r.Group("/", RequireAuth(resolver, tokens))
	protected.GET("/me", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "role": p.Role})
	})
	protected.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuth_BearerToken(t *testing.T) {
	tokens, err := token.NewManager("secret", "test", time.Hour)
	require.NoError(t, err)
	resolver := fakeResolver{7: {UserID: 7, Role: access.RoleEmployee, CompanyCode: "ACME1"}}
	r := newRouter(t, resolver, tokens)

	signed, _, err := tokens.Generate(7, "employee", "ACME1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["user_id"])
	assert.Equal(t, "employee", body["role"])

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuth_Rejects(t *testing.T) {
	tokens, err := token.NewManager("secret", "test", time.Hour)
	require.NoError(t, err)
	r := newRouter(t, fakeResolver{}, tokens)

	tests := []struct {
		name   string
		header string
	}{
		{"no credentials", ""},
		{"garbage token", "Bearer not-a-token"},
		{"wrong scheme", "Basic abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	// Valid token for a user that no longer exists.
	signed, _, err := tokens.Generate(99, "admin", "ACME1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_Session(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := fakeResolver{3: {UserID: 3, Role: access.RoleAdmin, CompanyCode: "ACME1"}}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, uint64(3))
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/admin", RequireAuth(resolver, nil), RequireAdmin(), func(c *gin.Context) {
		id, ok := GetUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":3}`, w.Body.String())
}

func TestRequireTaskID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tasks/:id", RequireTaskID(), func(c *gin.Context) {
		id, ok := GetTaskID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	tests := []struct {
		path string
		want int
	}{
		{"/tasks/12", http.StatusOK},
		{"/tasks/0", http.StatusBadRequest},
		{"/tasks/abc", http.StatusBadRequest},
		{"/tasks/-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, w.Code, tt.path)
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(constants.HeaderRequestID))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "/ping", line["path"])

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(constants.HeaderRequestID))
}
