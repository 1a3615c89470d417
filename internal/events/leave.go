package events

import "time"

const (
	LeaveNotificationsTopic = "hr.leave.notifications.v1"

	EventLeaveSubmitted     = "leave_submitted"
	EventLeaveStatusChanged = "leave_status_changed"
)

// LeaveEvent carries everything a notification template needs, so the
// consumer never reads the leave tables.
type LeaveEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id,omitempty"`
	LeaveID       string    `json:"leave_id"`
	CompanyID     string    `json:"company_id"`
	EmployeeID    string    `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	EmployeeEmail string    `json:"employee_email"`
	ApproverEmail string    `json:"approver_email,omitempty"`
	LeaveType     string    `json:"leave_type"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Days          int       `json:"days"`
	Reason        string    `json:"reason"`
	OldStatus     string    `json:"old_status,omitempty"`
	Status        string    `json:"status"`
	ActorID       string    `json:"actor_id"`
	Notes         string    `json:"notes,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Envelope is the part of every event the consumer reads before it knows
// the concrete type.
type Envelope struct {
	EventType string `json:"event_type"`
	RequestID string `json:"request_id,omitempty"`
	CompanyID string `json:"company_id"`
}
