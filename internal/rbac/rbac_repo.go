package rbac

import "gorm.io/gorm"

// Repository reads role assignments and grants. Roles and permissions are
// managed outside this service; nothing here writes them.
type Repository interface {
	LoadPolicy(companyID string) (Policy, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type UserRoleRow struct {
	UserID string
	RoleID string
}

type RolePermissionRow struct {
	RoleID   string
	Resource string
	Action   string
}

// Policy is everything the enforcer needs for one company.
type Policy struct {
	UserRoles       []UserRoleRow
	RolePermissions []RolePermissionRow
}

func (r *repository) LoadPolicy(companyID string) (Policy, error) {
	var p Policy

	err := r.db.
		Table("user_roles").
		Select("user_roles.user_id, user_roles.role_id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.company_id = ?", companyID).
		Order("user_roles.user_id, user_roles.role_id").
		Scan(&p.UserRoles).Error
	if err != nil {
		return Policy{}, err
	}

	err = r.db.
		Table("role_permissions").
		Select("role_permissions.role_id, permissions.resource, permissions.action").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("roles.company_id = ?", companyID).
		Order("role_permissions.role_id, permissions.resource, permissions.action").
		Scan(&p.RolePermissions).Error
	if err != nil {
		return Policy{}, err
	}

	return p, nil
}
