package employee

// Placement references organisation units. Empty strings clear a reference.
type Placement struct {
	LocationID     *string `json:"location_id" binding:"omitempty,uuid"`
	BranchID       *string `json:"branch_id" binding:"omitempty,uuid"`
	DepartmentID   *string `json:"department_id" binding:"omitempty,uuid"`
	DesignationID  *string `json:"designation_id" binding:"omitempty,uuid"`
	ContractTypeID *string `json:"contract_type_id" binding:"omitempty,uuid"`
}

type CreateEmployeeRequest struct {
	UserID       *string `json:"user_id" binding:"omitempty,uuid"`
	StaffNumber  string  `json:"staff_number" binding:"omitempty,max=30"`
	FullName     string  `json:"full_name" binding:"required,max=150"`
	Email        string  `json:"email" binding:"required,email"`
	Gender       string  `json:"gender" binding:"required,oneof=male female other"`
	MobileNumber string  `json:"mobile_number" binding:"omitempty,max=30"`
	HomeAddress  string  `json:"home_address" binding:"omitempty,max=500"`
	DateOfBirth  string  `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	DateOfJoin   string  `json:"date_of_join" binding:"required,datetime=2006-01-02"`
	SupervisorID *string `json:"supervisor_id" binding:"omitempty,uuid"`
	Placement
}

// UpdateEmployeeRequest replaces every editable field. A blank staff number
// keeps the current one.
type UpdateEmployeeRequest struct {
	UserID       *string `json:"user_id" binding:"omitempty,uuid"`
	StaffNumber  string  `json:"staff_number" binding:"omitempty,max=30"`
	FullName     string  `json:"full_name" binding:"required,max=150"`
	Email        string  `json:"email" binding:"required,email"`
	Gender       string  `json:"gender" binding:"required,oneof=male female other"`
	MobileNumber string  `json:"mobile_number" binding:"omitempty,max=30"`
	HomeAddress  string  `json:"home_address" binding:"omitempty,max=500"`
	DateOfBirth  string  `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	DateOfJoin   string  `json:"date_of_join" binding:"required,datetime=2006-01-02"`
	SupervisorID *string `json:"supervisor_id" binding:"omitempty,uuid"`
	Placement
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListQuery narrows and orders the employee directory. q matches name,
// email or staff number.
type ListQuery struct {
	Search   string `form:"q"`
	SortBy   string `form:"sort_by"`
	SortDir  string `form:"sort_dir"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}

type EmployeeRefResponse struct {
	ID          string `json:"id"`
	StaffNumber string `json:"staff_number"`
	FullName    string `json:"full_name"`
}

type EmployeeResponse struct {
	ID             string               `json:"id"`
	CompanyID      string               `json:"company_id"`
	UserID         *string              `json:"user_id"`
	StaffNumber    string               `json:"staff_number"`
	FullName       string               `json:"full_name"`
	Email          string               `json:"email"`
	Gender         string               `json:"gender"`
	MobileNumber   string               `json:"mobile_number,omitempty"`
	HomeAddress    string               `json:"home_address,omitempty"`
	DateOfBirth    *string              `json:"date_of_birth"`
	DateOfJoin     string               `json:"date_of_join"`
	LocationID     *string              `json:"location_id"`
	BranchID       *string              `json:"branch_id"`
	DepartmentID   *string              `json:"department_id"`
	DesignationID  *string              `json:"designation_id"`
	ContractTypeID *string              `json:"contract_type_id"`
	SupervisorID   *string              `json:"supervisor_id"`
	Supervisor     *EmployeeRefResponse `json:"supervisor,omitempty"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}
