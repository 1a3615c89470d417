package employee

import (
	"context"
	"database/sql"
	"strings"

	"go-hrms/internal/shared/connection"
	"go-hrms/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	List(ctx context.Context, companyID string, q ListQuery) ([]Employee, int64, error)
	FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error)
	FindByUserID(ctx context.Context, companyID string, userID string) (*Employee, error)
	FindSupervisorID(ctx context.Context, companyID string, id string) (*uuid.UUID, error)
	CountDirectReports(ctx context.Context, companyID string, id string) (int64, error)
	Update(ctx context.Context, empl *Employee) error
	Delete(ctx context.Context, companyID string, id string) error
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

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(empl).Error
}

func (r *repository) List(ctx context.Context, companyID string, q ListQuery) ([]Employee, int64, error) {
	q = q.Normalize()
	base := r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID), searchScope(q.Search))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[strings.ToLower(strings.TrimSpace(q.SortBy))]
	if !ok {
		column = sortColumns["name"]
	}

	var empls []Employee
	err := base.Session(&gorm.Session{}).
		Preload("Supervisor").
		Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: strings.EqualFold(q.SortDir, "desc")}).
		Order("employees.id").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&empls).Error
	return empls, total, err
}

var sortColumns = map[string]string{
	"name":         "LOWER(employees.full_name)",
	"email":        "LOWER(employees.email)",
	"staff_number": "employees.staff_number",
	"date_of_join": "employees.date_of_join",
	"created_at":   "employees.created_at",
}

func searchScope(search string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		q := strings.ToLower(strings.TrimSpace(search))
		if q == "" {
			return db
		}
		like := "%" + q + "%"
		return db.Where(
			"(LOWER(employees.full_name) LIKE ? OR LOWER(employees.email) LIKE ? OR LOWER(employees.staff_number) LIKE ?)",
			like, like, like,
		)
	}
}

func (r *repository) FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Select("id", "company_id", "staff_number", "full_name").
		Scopes(tenant.Scope(companyID)).
		Order("full_name ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Supervisor").
		Where("id = ?", id).
		Take(&empl).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) FindByUserID(ctx context.Context, companyID string, userID string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("user_id = ?", userID).
		Take(&empl).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) FindSupervisorID(ctx context.Context, companyID string, id string) (*uuid.UUID, error) {
	var row struct {
		SupervisorID *uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Select("supervisor_id").
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return row.SupervisorID, nil
}

func (r *repository) CountDirectReports(ctx context.Context, companyID string, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("supervisor_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).
		Model(empl).
		Select("*").
		Omit(clause.Associations, "id", "company_id", "created_at").
		Updates(empl).Error
}

func (r *repository) Delete(ctx context.Context, companyID string, id string) error {
	res := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Delete(&Employee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
