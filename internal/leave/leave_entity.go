package leave

import (
	"time"

	"go-hrms/internal/employee"

	"github.com/google/uuid"
)

const (
	TypeAnnual    = "annual"
	TypeSick      = "sick"
	TypeMaternity = "maternity"
	TypePaternity = "paternity"
	TypeEmergency = "emergency"
	TypeUnpaid    = "unpaid"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	minReasonLength = 10
	maxReasonLength = 500
	minDays         = 1
	maxDays         = 30
)

var leaveTypes = map[string]struct{}{
	TypeAnnual:    {},
	TypeSick:      {},
	TypeMaternity: {},
	TypePaternity: {},
	TypeEmergency: {},
	TypeUnpaid:    {},
}

var statuses = map[string]struct{}{
	StatusPending:   {},
	StatusApproved:  {},
	StatusRejected:  {},
	StatusCancelled: {},
}

func IsValidType(t string) bool {
	_, ok := leaveTypes[t]
	return ok
}

func IsValidStatus(s string) bool {
	_, ok := statuses[s]
	return ok
}

type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_company_status"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates"`
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null"`

	LeaveType     string    `gorm:"type:varchar(20);not null"`
	StartDate     time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate       time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	DaysRequested int       `gorm:"not null"`
	Reason        string    `gorm:"type:text;not null"`

	Status        string     `gorm:"type:varchar(20);not null;index:idx_leaves_company_status"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt    *time.Time
	ApprovalNotes *string `gorm:"type:text"`

	Employee *employee.Employee `gorm:"foreignKey:EmployeeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Leave) TableName() string {
	return "leaves"
}

func (l *Leave) IsPending() bool {
	return l.Status == StatusPending
}

// setStatus moves the leave to status and keeps the approver fields
// consistent with it: they are set together when a decision is made and
// cleared otherwise.
func (l *Leave) setStatus(status string, actorID uuid.UUID, at time.Time, notes *string) {
	l.Status = status
	switch status {
	case StatusApproved, StatusRejected:
		approver := actorID
		decidedAt := at
		l.ApprovedBy = &approver
		l.ApprovedAt = &decidedAt
		l.ApprovalNotes = notes
	default:
		l.ApprovedBy = nil
		l.ApprovedAt = nil
		l.ApprovalNotes = nil
	}
}

// snapshot captures the fields kept in the audit trail once a row is gone.
func (l *Leave) snapshot() map[string]any {
	snap := map[string]any{
		"id":             l.ID.String(),
		"employee_id":    l.EmployeeID.String(),
		"leave_type":     l.LeaveType,
		"start_date":     l.StartDate.Format(dateLayout),
		"end_date":       l.EndDate.Format(dateLayout),
		"days_requested": l.DaysRequested,
		"reason":         l.Reason,
		"status":         l.Status,
	}
	if l.Employee != nil {
		snap["employee_name"] = l.Employee.FullName
	}
	return snap
}
