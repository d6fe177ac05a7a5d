package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyPrincipal = "principal"
	ContextKeyTaskID    = "task_id"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "task_session"
	HeaderRequestID     = "X-Request-ID"
)

// Validation limits
const (
	MinPasswordLength   = 8
	MinUsernameLength   = 3
	MaxUsernameLength   = 50
	MaxTitleLength      = 200
	MaxCommentLength    = 2000
	MaxSearchQueryLen   = 100
	MaxAIGeneratedTasks = 20
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Company codes
const (
	DefaultCompanyCodeLength      = 6
	DefaultCompanyCodeMaxAttempts = 5
)

// Cache TTLs
const (
	DefaultTaskListTTL  = 30 * time.Second
	DefaultAnalyticsTTL = 300 * time.Second
)
