package apperror

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// formatFieldName turns start_date into "Start Date".
func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError converts binding errors into field-scoped AppErrors.
// Field names come from json tags once Init has registered the tag func.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return ErrInvalidInput
	}

	mapped := make([]*AppError, 0, len(errs))
	for _, e := range errs {
		field := e.Field()
		var fe *AppError
		switch e.Tag() {
		case "required":
			fe = NewField(field, formatFieldName(field)+" is required")
		case "oneof":
			fe = NewField(field, formatFieldName(field)+" must be one of: "+e.Param())
		case "datetime":
			fe = NewField(field, formatFieldName(field)+" must be a date in YYYY-MM-DD format")
		case "uuid":
			fe = NewField(field, formatFieldName(field)+" must be a valid id")
		case "email":
			fe = NewField(field, formatFieldName(field)+" must be a valid email address")
		case "max":
			fe = NewField(field, formatFieldName(field)+" must be at most "+e.Param()+" characters")
		default:
			fe = NewField(field, formatFieldName(field)+" is invalid")
		}
		mapped = append(mapped, fe)
	}

	return JoinFields(mapped...)
}
