package leaveerrors

import "go-hrms/internal/shared/apperror"

var (
	ErrInvalidCompanyID  = apperror.Of(apperror.CodeInvalidInput, "invalid company id")
	ErrInvalidActorID    = apperror.Unauthorized("invalid actor id")
	ErrInvalidEmployeeID = apperror.InvalidField("employee_id")
	ErrInvalidLeaveType  = apperror.InvalidField("leave_type")
	ErrInvalidStatus     = apperror.InvalidField("status")
	ErrInvalidStartDate  = apperror.NewField("start_date", "start_date must be a date in YYYY-MM-DD format")
	ErrInvalidEndDate    = apperror.NewField("end_date", "end_date must be a date in YYYY-MM-DD format")
	ErrStartDateInPast   = apperror.NewField("start_date", "start_date cannot be in the past")
	ErrInvalidDateRange  = apperror.NewField("end_date", "end_date must be on or after start_date")
	ErrDaysOutOfRange    = apperror.NewField("days_requested", "leave must cover between 1 and 30 working days")
	ErrReasonLength      = apperror.NewField("reason", "reason must be between 10 and 500 characters")
	ErrOverrideReason    = apperror.NewField("reason", "an override needs a reason of 10 to 500 characters")
	ErrNothingSelected   = apperror.NewField("ids", "select at least one leave or confirm all matching rows")
	ErrInvalidFormat     = apperror.NewField("format", "format must be csv or xlsx")

	ErrEmployeeNotInCompany = apperror.NewField("employee_id", "employee does not belong to this company")

	ErrEmployeeProfileRequired = apperror.Forbidden("no employee record is linked to this account")
	ErrLeaveForbidden          = apperror.Forbidden("you are not allowed to perform this action on the leave request")
	ErrLeaveOverlap            = apperror.Conflict("leave already exists in overlapping period")
	ErrLeaveNotFound           = apperror.NotFound("leave not found")
	ErrLeaveNotPending         = apperror.InvalidState("leave request is no longer pending")
	ErrStatusUnchanged         = apperror.InvalidState("leave request already has this status")
)
