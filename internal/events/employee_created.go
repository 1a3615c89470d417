package events

import "time"

const (
	EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

	EventEmployeeCreated = "employee_created"
)

type EmployeeCreatedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	EmployeeID  string    `json:"employee_id"`
	CompanyID   string    `json:"company_id"`
	StaffNumber string    `json:"staff_number"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	DateOfJoin  string    `json:"date_of_join"`
	OccurredAt  time.Time `json:"occurred_at"`
}
