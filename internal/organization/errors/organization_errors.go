package organizationerrors

import "go-hrms/internal/shared/apperror"

var (
	ErrUnitNotFound      = apperror.NotFound("Organisation unit not found")
	ErrInvalidKind       = apperror.NewField("kind", "kind must be one of: location branch department designation contract_type")
	ErrParentRequired    = apperror.RequiredField("parent_id")
	ErrParentNotAllowed  = apperror.NewField("parent_id", "parent_id is not allowed for this kind")
	ErrParentNotFound    = apperror.NewField("parent_id", "parent_id does not reference a unit of the expected kind")
	ErrUnitInUse         = apperror.Conflict("Organisation unit still has child units or placed employees")
	ErrCodeAlreadyExists = apperror.Conflict("Organisation unit code already exists in this company")
)
