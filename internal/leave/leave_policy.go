package leave

import (
	"context"
	"errors"

	"go-hrms/internal/domain"
	"go-hrms/internal/employee"
	leaveerrors "go-hrms/internal/leave/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Authorizer answers capability checks. The rbac service satisfies it.
type Authorizer interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

// EmployeeLookup resolves employee records for ownership and supervisor
// checks. The employee repository satisfies it.
type EmployeeLookup interface {
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*employee.Employee, error)
	FindByUserID(ctx context.Context, companyID string, userID string) (*employee.Employee, error)
}

// Scope is what one actor may see of the leave table.
//
// Holders of leave:manage_all see every leave of their company. Everyone
// else sees their own leaves plus those of their direct reports, and
// nothing when no employee record is linked to them.
type Scope struct {
	CompanyID  string
	UserID     string
	ManageAll  bool
	EmployeeID *uuid.UUID
}

// Query is a gorm scope restricting a leave query to the visible rows.
func (s Scope) Query(db *gorm.DB) *gorm.DB {
	db = db.Where("leaves.company_id = ?", s.CompanyID)
	switch {
	case s.ManageAll:
		return db
	case s.EmployeeID == nil:
		return db.Where("1 = 0")
	default:
		return db.Where(
			"(leaves.employee_id = ? OR leaves.employee_id IN (SELECT id FROM employees WHERE supervisor_id = ? AND company_id = ?))",
			*s.EmployeeID, *s.EmployeeID, s.CompanyID,
		)
	}
}

// Owns reports whether l belongs to the actor's own employee record.
func (s Scope) Owns(l *Leave) bool {
	return s.EmployeeID != nil && l.EmployeeID == *s.EmployeeID
}

// Supervises reports whether the actor is the supervisor of record of the
// employee behind l. l.Employee must be loaded.
func (s Scope) Supervises(l *Leave) bool {
	if s.EmployeeID == nil || l.Employee == nil || l.Employee.SupervisorID == nil {
		return false
	}
	return *l.Employee.SupervisorID == *s.EmployeeID
}

// CanView mirrors Query for a single loaded row.
func (s Scope) CanView(l *Leave) bool {
	if l.CompanyID.String() != s.CompanyID {
		return false
	}
	return s.ManageAll || s.Owns(l) || s.Supervises(l)
}

// CanDecide reports whether the actor may approve or reject l. A leave can
// never be decided by the employee it belongs to or by the user who filed
// it, whatever the supervisor data says.
func (s Scope) CanDecide(l *Leave) bool {
	if l.CreatedBy.String() == s.UserID {
		return false
	}
	return s.canDecideFor(l)
}

// canDecideFor ignores who filed l. It serves a manager recording an
// already decided leave on an employee's behalf.
func (s Scope) canDecideFor(l *Leave) bool {
	if s.Owns(l) {
		return false
	}
	if l.Employee != nil && l.Employee.UserID != nil && l.Employee.UserID.String() == s.UserID {
		return false
	}
	if l.CompanyID.String() != s.CompanyID {
		return false
	}
	return s.ManageAll || s.Supervises(l)
}

type Policy struct {
	authorizer Authorizer
	employees  EmployeeLookup
	logger     *zap.Logger
}

func NewPolicy(authorizer Authorizer, employees EmployeeLookup, logger ...*zap.Logger) *Policy {
	l := zap.L().Named("leave.policy")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.policy")
	}
	return &Policy{authorizer: authorizer, employees: employees, logger: l}
}

// Resolve builds the actor's scope. A missing employee record is not an
// error: the scope is just empty unless the actor manages all leaves.
func (p *Policy) Resolve(ctx context.Context, actor domain.Actor) (Scope, error) {
	scope := Scope{CompanyID: actor.CompanyID, UserID: actor.UserID}

	allowed, err := p.authorizer.Enforce(actor.Can(domain.ResourceLeave, domain.ActionManageAll))
	if err != nil {
		p.logger.Error("leave scope enforce failed",
			zap.String("user_id", actor.UserID),
			zap.Error(err),
		)
		return Scope{}, err
	}
	scope.ManageAll = allowed

	empl, err := p.employees.FindByUserID(ctx, actor.CompanyID, actor.UserID)
	switch {
	case err == nil:
		id := empl.ID
		scope.EmployeeID = &id
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		p.logger.Error("leave scope employee lookup failed",
			zap.String("user_id", actor.UserID),
			zap.Error(err),
		)
		return Scope{}, err
	}

	return scope, nil
}

// Require fails with ErrLeaveForbidden unless the actor holds the leave
// capability action.
func (p *Policy) Require(actor domain.Actor, action string) error {
	allowed, err := p.authorizer.Enforce(actor.Can(domain.ResourceLeave, action))
	if err != nil {
		p.logger.Error("leave capability enforce failed",
			zap.String("user_id", actor.UserID),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	if !allowed {
		p.logger.Warn("leave capability denied",
			zap.String("user_id", actor.UserID),
			zap.String("action", action),
		)
		return leaveerrors.ErrLeaveForbidden
	}
	return nil
}
