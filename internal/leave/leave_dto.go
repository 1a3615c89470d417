package leave

import "strings"

// SubmitLeaveRequest is the self-service form. The subject is always the
// caller's own employee record; DaysRequested is only a hint.
type SubmitLeaveRequest struct {
	LeaveType     string `json:"leave_type" binding:"required,oneof=annual sick maternity paternity emergency unpaid"`
	StartDate     string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Reason        string `json:"reason" binding:"required"`
	DaysRequested *int   `json:"days_requested"`
}

type AdminCreateLeaveRequest struct {
	EmployeeID    string  `json:"employee_id" binding:"required,uuid"`
	LeaveType     string  `json:"leave_type" binding:"required,oneof=annual sick maternity paternity emergency unpaid"`
	StartDate     string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string  `json:"end_date" binding:"required,datetime=2006-01-02"`
	Reason        string  `json:"reason" binding:"required"`
	Status        string  `json:"status" binding:"omitempty,oneof=pending approved rejected cancelled"`
	ApprovalNotes *string `json:"approval_notes"`
	DaysRequested *int    `json:"days_requested"`
}

// UpdateLeaveRequest edits a pending leave. Status is honoured only for
// callers allowed to manage every leave.
type UpdateLeaveRequest struct {
	LeaveType     string  `json:"leave_type" binding:"required,oneof=annual sick maternity paternity emergency unpaid"`
	StartDate     string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string  `json:"end_date" binding:"required,datetime=2006-01-02"`
	Reason        string  `json:"reason" binding:"required"`
	Status        string  `json:"status" binding:"omitempty,oneof=pending approved rejected cancelled"`
	ApprovalNotes *string `json:"approval_notes"`
	DaysRequested *int    `json:"days_requested"`
}

type DecisionRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}

type OverrideLeaveRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected cancelled"`
	Reason string `json:"reason" binding:"required"`
}

// ListFilter is shared by list, select-all, bulk delete and export so the
// four of them always see the same rows.
type ListFilter struct {
	Search     string   `form:"q" json:"q"`
	Status     string   `form:"status" json:"status" binding:"omitempty,oneof=pending approved rejected cancelled"`
	LeaveType  string   `form:"leave_type" json:"leave_type" binding:"omitempty,oneof=annual sick maternity paternity emergency unpaid"`
	EmployeeID string   `form:"employee_id" json:"employee_id" binding:"omitempty,uuid"`
	From       string   `form:"from" json:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string   `form:"to" json:"to" binding:"omitempty,datetime=2006-01-02"`
	IDs        []string `form:"ids" json:"ids" binding:"omitempty,dive,uuid"`
	SortBy     string   `form:"sort_by" json:"sort_by"`
	SortDir    string   `form:"sort_dir" json:"sort_dir"`
	Page       int      `form:"page" json:"page"`
	PageSize   int      `form:"page_size" json:"page_size"`
}

// HasCriteria reports whether any row-narrowing field is set. Sorting and
// paging do not count.
func (f ListFilter) HasCriteria() bool {
	return strings.TrimSpace(f.Search) != "" ||
		f.Status != "" ||
		f.LeaveType != "" ||
		f.EmployeeID != "" ||
		f.From != "" ||
		f.To != ""
}

// BulkDeleteRequest narrows the caller's visible rows by Filter and, when
// given, by IDs. IDs never widen the set. AllMatching must be set to delete
// by filter alone.
type BulkDeleteRequest struct {
	IDs         []string   `json:"ids" binding:"omitempty,dive,uuid"`
	AllMatching bool       `json:"all_matching"`
	Filter      ListFilter `json:"filter"`
}

type BulkDeleteResponse struct {
	Deleted int      `json:"deleted"`
	IDs     []string `json:"ids"`
}

type SelectAllResponse struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

type LeaveResponse struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"company_id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	CreatedBy     string  `json:"created_by"`
	LeaveType     string  `json:"leave_type"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	DaysRequested int     `json:"days_requested"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	ApprovedAt    *string `json:"approved_at,omitempty"`
	ApprovalNotes *string `json:"approval_notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}
