package apperror

import "errors"

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewField creates a validation error scoped to a single request field.
func NewField(field, message string) *AppError {
	e := Of(CodeInvalidInput, message)
	e.Details = []FieldError{{Field: field, Message: message}}
	return e
}

func RequiredField(field string) *AppError {
	return NewField(field, field+" is required")
}

func InvalidField(field string) *AppError {
	return NewField(field, field+" is invalid")
}

// JoinFields merges field-scoped validation errors into a single error.
// The result still matches every input through errors.Is.
func JoinFields(errs ...*AppError) error {
	var (
		present []error
		fields  []FieldError
	)
	for _, e := range errs {
		if e == nil {
			continue
		}
		present = append(present, e)
		if fe, ok := e.Details.([]FieldError); ok {
			fields = append(fields, fe...)
		}
	}

	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	}

	e := Of(CodeInvalidInput, ErrInvalidInput.Message)
	e.Details = fields
	e.Err = errors.Join(present...)
	return e
}
