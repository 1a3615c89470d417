package employee

import (
	"time"

	"github.com/google/uuid"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// maxSupervisorHops bounds the supervisor chain walk when checking for cycles.
const maxSupervisorHops = 64

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:uq_employees_company_email,priority:1"`
	UserID         *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_employees_user_id"`
	StaffNumber    string     `gorm:"uniqueIndex:uq_employees_staff_number"`
	FullName       string
	Email          string `gorm:"uniqueIndex:uq_employees_company_email,priority:2"`
	Gender         string
	MobileNumber   string
	HomeAddress    string
	DateOfBirth    *time.Time `gorm:"type:date"`
	DateOfJoin     time.Time  `gorm:"type:date"`
	LocationID     *uuid.UUID `gorm:"type:uuid"`
	BranchID       *uuid.UUID `gorm:"type:uuid"`
	DepartmentID   *uuid.UUID `gorm:"type:uuid"`
	DesignationID  *uuid.UUID `gorm:"type:uuid"`
	ContractTypeID *uuid.UUID `gorm:"type:uuid"`
	SupervisorID   *uuid.UUID `gorm:"type:uuid;index"`
	Supervisor     *Employee  `gorm:"foreignKey:SupervisorID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
