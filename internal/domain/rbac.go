package domain

// Leave capabilities the leave service checks itself, so that callers
// outside the HTTP routes get the same answer.
const (
	ResourceLeave   = "leave"
	ActionManageAll = "manage_all"
	ActionDelete    = "delete"
	ActionExport    = "export"
)

// EnforceRequest asks whether a user may perform action on resource within
// a company. The user is the casbin subject; companies are casbin domains.
type EnforceRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	CompanyID string `json:"company_id" binding:"required"`
	Resource  string `json:"resource" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}
