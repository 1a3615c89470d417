package rbac

import "go-hrms/internal/domain"

type EnforceRequest = domain.EnforceRequest

type EnforceResponse = domain.EnforceResponse

// CheckRequest is the body of /rbac/enforce. The subject is always the
// authenticated caller.
type CheckRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}
