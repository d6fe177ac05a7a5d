package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Error kinds returned by the service layer. Domain errors created with New
// match their kind through errors.Is.
var (
	ErrValidation              = stderrors.New("validation failed")
	ErrNotFound                = stderrors.New("not found")
	ErrForbidden               = stderrors.New("forbidden")
	ErrUnauthorized            = stderrors.New("unauthorized")
	ErrInvalidAssignment       = stderrors.New("invalid assignment")
	ErrDuplicate               = stderrors.New("duplicate")
	ErrCodeGenerationExhausted = stderrors.New("company code generation exhausted")
	ErrUnavailable             = stderrors.New("service unavailable")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with the given message that unwraps to kind.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// StatusFor maps an error kind to its HTTP status and API error code.
func StatusFor(err error) (int, string) {
	switch {
	case stderrors.Is(err, ErrValidation):
		return http.StatusBadRequest, ErrCodeInvalidInput
	case stderrors.Is(err, ErrInvalidAssignment):
		return http.StatusBadRequest, ErrCodeInvalidAssignment
	case stderrors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case stderrors.Is(err, ErrDuplicate):
		return http.StatusConflict, ErrCodeAlreadyExists
	case stderrors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// RespondWithServiceError writes the response for an error returned by a service.
// Errors without a known kind are logged and reported as internal errors
// without leaking their message.
func RespondWithServiceError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		RespondWithError(c, status, NewAPIError(code, "Internal server error"))
		return
	}
	RespondWithError(c, status, NewAPIError(code, err.Error()))
}
