package apperror

import "fmt"

// AppError is the error type every service returns to handlers. Sentinels
// are compared by identity, so two errors with the same code stay distinct
// under errors.Is.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    any // []FieldError for validation failures
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Of builds an error whose status follows from its code.
func Of(code, message string) *AppError {
	return New(code, message, StatusFor(code))
}
