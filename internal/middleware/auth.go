package middleware

import (
	"context"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/access"
	"github.com/yukikurage/company-task-api/internal/constants"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/token"
)

// PrincipalResolver loads the current principal of a user.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uint64) (access.Principal, error)
}

// RequireAuth authenticates the request with a bearer token or, failing that,
// the session cookie, and stores the resolved principal in the context.
func RequireAuth(resolver PrincipalResolver, tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerUserID(c, tokens)
		if !ok {
			userID, ok = sessionUserID(c)
		}
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		principal, err := resolver.ResolvePrincipal(c.Request.Context(), userID)
		if err != nil {
			apierrors.RespondWithServiceError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyPrincipal, principal)
		c.Next()
	}
}

// RequireAdmin rejects principals that are not admins. It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !principal.IsAdmin() {
			apierrors.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerUserID(c *gin.Context, tokens *token.Manager) (uint64, bool) {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokens == nil {
		return 0, false
	}
	claims, err := tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}

func sessionUserID(c *gin.Context) (uint64, bool) {
	return toUserID(sessions.Default(c).Get(constants.ContextKeyUserID))
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(userID)
}

// GetPrincipal retrieves the principal stored by RequireAuth.
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

func toUserID(v interface{}) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
