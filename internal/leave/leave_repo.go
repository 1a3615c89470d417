package leave

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go-hrms/internal/shared/connection"
	"go-hrms/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var sortColumns = map[string]string{
	"created_at":     "leaves.created_at",
	"start_date":     "leaves.start_date",
	"end_date":       "leaves.end_date",
	"days_requested": "leaves.days_requested",
	"status":         "leaves.status",
	"leave_type":     "leaves.leave_type",
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *Leave) error
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*Leave, error)
	FindVisibleByID(ctx context.Context, scope Scope, id string) (*Leave, error)
	List(ctx context.Context, scope Scope, filter ListFilter) ([]Leave, int64, error)
	FindAll(ctx context.Context, scope Scope, filter ListFilter) ([]Leave, error)
	FindIDs(ctx context.Context, scope Scope, filter ListFilter) ([]string, error)
	HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error)
	Update(ctx context.Context, l *Leave) error
	Delete(ctx context.Context, companyID, id string) error
	DeleteByIDs(ctx context.Context, companyID string, ids []string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: connection.BindTx(r.db, tx)}
}

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error
}

// FindByIDForUpdate locks the row until the surrounding transaction ends,
// so concurrent transitions on one leave are applied one after the other.
func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindVisibleByID(ctx context.Context, scope Scope, id string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		Model(&Leave{}).
		Scopes(scope.Query).
		Preload("Employee").
		Where("leaves.id = ?", id).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) List(ctx context.Context, scope Scope, filter ListFilter) ([]Leave, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&Leave{}).
		Scopes(scope.Query, filterScope(filter))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	var leaves []Leave
	err := base.Session(&gorm.Session{}).
		Preload("Employee").
		Scopes(sortScope(filter)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&leaves).Error
	return leaves, total, err
}

func (r *repository) FindAll(ctx context.Context, scope Scope, filter ListFilter) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Model(&Leave{}).
		Scopes(scope.Query, filterScope(filter), sortScope(filter)).
		Preload("Employee").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindIDs(ctx context.Context, scope Scope, filter ListFilter) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&Leave{}).
		Scopes(scope.Query, filterScope(filter), sortScope(filter)).
		Pluck("leaves.id", &ids).Error
	return ids, err
}

// HasOverlappingPeriod looks for a pending or approved leave of the same
// employee that shares at least one date with [startDate, endDate].
func (r *repository) HasOverlappingPeriod(
	ctx context.Context,
	companyID, employeeID string,
	startDate, endDate time.Time,
	excludeID *string,
) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&Leave{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{StatusPending, StatusApproved}).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate)
	if excludeID != nil && *excludeID != "" {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).
		Model(l).
		Select("*").
		Omit(clause.Associations, "id", "company_id", "created_by", "created_at").
		Updates(l).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Delete(&Leave{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteByIDs(ctx context.Context, companyID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Delete(&Leave{})
	return res.RowsAffected, res.Error
}

func filterScope(f ListFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
			like := "%" + q + "%"
			db = db.Where(
				"(LOWER(leaves.reason) LIKE ? OR leaves.employee_id IN (SELECT id FROM employees WHERE LOWER(full_name) LIKE ?))",
				like, like,
			)
		}
		if f.Status != "" {
			db = db.Where("leaves.status = ?", f.Status)
		}
		if f.LeaveType != "" {
			db = db.Where("leaves.leave_type = ?", f.LeaveType)
		}
		if f.EmployeeID != "" {
			db = db.Where("leaves.employee_id = ?", f.EmployeeID)
		}
		if from, err := ParseDate(f.From); err == nil {
			db = db.Where("leaves.end_date >= ?", from)
		}
		if to, err := ParseDate(f.To); err == nil {
			db = db.Where("leaves.start_date <= ?", to)
		}
		if len(f.IDs) > 0 {
			db = db.Where("leaves.id IN ?", f.IDs)
		}
		return db
	}
}

func sortScope(f ListFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column, ok := sortColumns[strings.ToLower(strings.TrimSpace(f.SortBy))]
		if !ok {
			column = sortColumns["created_at"]
		}
		desc := !strings.EqualFold(f.SortDir, "asc")
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: desc}).
			Order("leaves.id")
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
