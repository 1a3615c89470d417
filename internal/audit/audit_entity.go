package audit

import "time"

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionBulkDelete = "bulk_delete"
	ActionApprove    = "approve"
	ActionReject     = "reject"
	ActionCancel     = "cancel_leave"
	ActionOverride   = "override"

	ActionServerShutdown = "server_shutdown"
)

const (
	TargetLeave        = "leave"
	TargetEmployee     = "employee"
	TargetOrganization = "organization"
	TargetServer       = "server"
)

// Entry is one append-only audit record. TargetID is empty for actions
// that do not address a single row (bulk delete, server lifecycle).
type Entry struct {
	ID         string
	CompanyID  string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Details    map[string]any
	CreatedAt  time.Time
}
