package employee

import (
	"errors"
	"strings"

	employeeerrors "go-hrms/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var uniqueConstraintErrors = map[string]error{
	"uq_employees_staff_number":  employeeerrors.ErrStaffNumberAlreadyExists,
	"uq_employees_company_email": employeeerrors.ErrEmployeeAlreadyExists,
	"uq_employees_user_id":       employeeerrors.ErrUserAlreadyLinked,
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if mapped, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
				return mapped
			}
		case pgForeignKeyViolation:
			return employeeerrors.ErrEmployeeInUse
		}
	}

	// Drivers that do not surface *pgconn.PgError still carry the constraint
	// name in the message.
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") {
		for constraint, mapped := range uniqueConstraintErrors {
			if strings.Contains(errMsg, constraint) {
				return mapped
			}
		}
	}

	return err
}
