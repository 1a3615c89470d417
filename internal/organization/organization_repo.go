package organization

import (
	"context"
	"database/sql"

	"go-hrms/internal/shared/connection"
	"go-hrms/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=organization_repo.go -destination=mock/organization_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, kind Kind, unit *Unit) error
	FindAllByCompany(ctx context.Context, companyID string, kind Kind) ([]Unit, error)
	FindByIDAndCompany(ctx context.Context, companyID string, kind Kind, id string) (*Unit, error)
	Update(ctx context.Context, kind Kind, unit *Unit) error
	Delete(ctx context.Context, companyID string, kind Kind, id string) error
	CountChildren(ctx context.Context, companyID string, kind Kind, id string) (int64, error)
	CountPlacedEmployees(ctx context.Context, companyID string, kind Kind, id string) (int64, error)
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

func (r *repository) table(ctx context.Context, kind Kind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Table())
}

func (r *repository) Create(ctx context.Context, kind Kind, unit *Unit) error {
	return r.table(ctx, kind).Create(unit).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, kind Kind) ([]Unit, error) {
	var units []Unit
	err := r.table(ctx, kind).
		Scopes(tenant.Scope(companyID)).
		Order("name ASC").
		Find(&units).Error
	return units, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, kind Kind, id string) (*Unit, error) {
	var unit Unit
	err := r.table(ctx, kind).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Take(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) Update(ctx context.Context, kind Kind, unit *Unit) error {
	return r.table(ctx, kind).
		Where("id = ? AND company_id = ?", unit.ID, unit.CompanyID).
		Updates(map[string]any{
			"parent_id":   unit.ParentID,
			"name":        unit.Name,
			"code":        unit.Code,
			"description": unit.Description,
			"updated_at":  unit.UpdatedAt,
		}).Error
}

func (r *repository) Delete(ctx context.Context, companyID string, kind Kind, id string) error {
	return r.table(ctx, kind).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Delete(&Unit{}).Error
}

func (r *repository) CountChildren(ctx context.Context, companyID string, kind Kind, id string) (int64, error) {
	child, ok := kind.Child()
	if !ok {
		return 0, nil
	}
	var count int64
	err := r.table(ctx, child).
		Scopes(tenant.Scope(companyID)).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *repository) CountPlacedEmployees(ctx context.Context, companyID string, kind Kind, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Scopes(tenant.Scope(companyID)).
		Where(kind.EmployeeColumn()+" = ?", id).
		Count(&count).Error
	return count, err
}
