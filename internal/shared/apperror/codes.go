package apperror

import "net/http"

const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidState       = "INVALID_STATE"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[string]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeInvalidState:       http.StatusConflict,
	CodeInternalError:      http.StatusInternalServerError,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
}

// StatusFor returns the HTTP status a code is reported with. Unknown codes
// are internal errors.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

var (
	ErrInvalidInput = Of(CodeInvalidInput, "The provided input is invalid")
	ErrUnauthorized = Unauthorized("Authentication is required")
	ErrForbidden    = Forbidden("You are not allowed to perform this action")
	ErrInvalidState = InvalidState("The record changed state; refresh and try again")
	ErrInternal     = Of(CodeInternalError, "An unexpected error occurred")
)

func Unauthorized(message string) *AppError { return Of(CodeUnauthorized, message) }

func Forbidden(message string) *AppError { return Of(CodeForbidden, message) }

func NotFound(message string) *AppError { return Of(CodeNotFound, message) }

func Conflict(message string) *AppError { return Of(CodeConflict, message) }

// InvalidState reports an operation the record's current state does not
// allow. Clients are expected to reload before retrying.
func InvalidState(message string) *AppError { return Of(CodeInvalidState, message) }
