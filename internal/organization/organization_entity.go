package organization

import (
	"time"

	"github.com/google/uuid"
)

// Kind names one of the organisational reference tables.
type Kind string

const (
	KindLocation     Kind = "location"
	KindBranch       Kind = "branch"
	KindDepartment   Kind = "department"
	KindDesignation  Kind = "designation"
	KindContractType Kind = "contract_type"
)

var kinds = map[Kind]struct {
	table  string
	parent Kind
}{
	KindLocation:     {table: "locations"},
	KindBranch:       {table: "branches", parent: KindLocation},
	KindDepartment:   {table: "departments", parent: KindBranch},
	KindDesignation:  {table: "designations"},
	KindContractType: {table: "contract_types"},
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) Table() string {
	return kinds[k].table
}

// Parent returns the kind a unit of k must belong to. Location, designation
// and contract type are roots.
func (k Kind) Parent() (Kind, bool) {
	p := kinds[k].parent
	return p, p != ""
}

// Child is the inverse of Parent.
func (k Kind) Child() (Kind, bool) {
	for kind, meta := range kinds {
		if meta.parent == k {
			return kind, true
		}
	}
	return "", false
}

// EmployeeColumn is the employees column that places an employee on a unit.
func (k Kind) EmployeeColumn() string {
	return string(k) + "_id"
}

type Unit struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Name        string     `gorm:"size:150;not null"`
	Code        string     `gorm:"size:50"`
	Description string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}
