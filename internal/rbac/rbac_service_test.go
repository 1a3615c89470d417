package rbac

import (
	"errors"
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/stretchr/testify/assert"
)

type fakeRepo struct {
	userRoles map[string][]UserRoleRow
	rolePerms map[string][]RolePermissionRow
	err       error
}

func (f *fakeRepo) LoadPolicy(companyID string) (Policy, error) {
	if f.err != nil {
		return Policy{}, f.err
	}
	return Policy{UserRoles: f.userRoles[companyID], RolePermissions: f.rolePerms[companyID]}, nil
}

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	modelText := `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && r.dom == p.dom && r.obj == p.obj && r.act == p.act
`

	m, err := model.NewModelFromString(modelText)
	assert.NoError(t, err)

	e, err := casbin.NewEnforcer(m)
	assert.NoError(t, err)

	return e
}

func newFixtureRepo() *fakeRepo {
	return &fakeRepo{
		userRoles: map[string][]UserRoleRow{
			"company-1": {{UserID: "user-hr", RoleID: "role-hr"}, {UserID: "user-staff", RoleID: "role-staff"}},
			"company-2": {{UserID: "user-staff", RoleID: "role-admin-2"}},
		},
		rolePerms: map[string][]RolePermissionRow{
			"company-1": {
				{RoleID: "role-hr", Resource: "leave", Action: "manage_all"},
				{RoleID: "role-hr", Resource: "leave", Action: "read"},
				{RoleID: "role-staff", Resource: "leave", Action: "read"},
			},
			"company-2": {
				{RoleID: "role-admin-2", Resource: "leave", Action: "manage_all"},
			},
		},
	}
}

func TestRBACService_Enforce(t *testing.T) {
	t.Run("allow and deny within company", func(t *testing.T) {
		svc := NewService(newFixtureRepo(), newTestEnforcer(t))

		allowed, err := svc.Enforce(EnforceRequest{UserID: "user-hr", CompanyID: "company-1", Resource: "leave", Action: "manage_all"})
		assert.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = svc.Enforce(EnforceRequest{UserID: "user-staff", CompanyID: "company-1", Resource: "leave", Action: "manage_all"})
		assert.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("roles do not leak across companies", func(t *testing.T) {
		svc := NewService(newFixtureRepo(), newTestEnforcer(t))

		allowed, err := svc.Enforce(EnforceRequest{UserID: "user-staff", CompanyID: "company-2", Resource: "leave", Action: "manage_all"})
		assert.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = svc.Enforce(EnforceRequest{UserID: "user-staff", CompanyID: "company-1", Resource: "leave", Action: "manage_all"})
		assert.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("negative repo error", func(t *testing.T) {
		svc := NewService(&fakeRepo{err: errors.New("db down")}, newTestEnforcer(t))

		allowed, err := svc.Enforce(EnforceRequest{UserID: "user-hr", CompanyID: "company-1", Resource: "leave", Action: "read"})
		assert.Error(t, err)
		assert.False(t, allowed)
	})
}

func TestRBACService_LoadCompanyPolicy(t *testing.T) {
	e := newTestEnforcer(t)
	svc := NewService(newFixtureRepo(), e)

	assert.NoError(t, svc.LoadCompanyPolicy("company-1"))
	roles := e.GetRolesForUserInDomain("user-hr", "company-1")
	assert.Equal(t, []string{"role-hr"}, roles)
}
