package employeeerrors

import "go-hrms/internal/shared/apperror"

var (
	ErrEmployeeNotFound         = apperror.NotFound("Employee not found")
	ErrEmployeeAlreadyExists    = apperror.Conflict("Employee with the same email already exists")
	ErrStaffNumberAlreadyExists = apperror.Conflict("Staff number already exists")
	ErrUserAlreadyLinked        = apperror.Conflict("User is already linked to another employee")
	ErrEmployeeHasReports       = apperror.Conflict("Employee still supervises other employees")
	ErrEmployeeInUse            = apperror.Conflict("Employee is still referenced by other records")
	ErrInvalidCompanyID         = apperror.InvalidField("company_id")
	ErrInvalidEmployeeID        = apperror.InvalidField("id")
	ErrInvalidDateOfJoin        = apperror.NewField("date_of_join", "date_of_join must use YYYY-MM-DD")
	ErrInvalidDateOfBirth       = apperror.NewField("date_of_birth", "date_of_birth must use YYYY-MM-DD and precede date_of_join")

	ErrSelfSupervisor     = apperror.NewField("supervisor_id", "An employee cannot supervise themselves")
	ErrSupervisorCycle    = apperror.NewField("supervisor_id", "Supervisor assignment would create a reporting cycle")
	ErrSupervisorNotFound = apperror.NewField("supervisor_id", "Supervisor not found in this company")

	ErrPlacementNotFound = apperror.NewField("placement", "Referenced organisation unit not found")
	ErrPlacementMismatch = apperror.NewField("placement", "Branch must belong to the location and department to the branch")
)
