package rbac

import (
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/stretchr/testify/assert"
)

// =========================================
// Mock Repository
// =========================================

type mockRepo struct{}

func (m *mockRepo) GetUserRoles() ([]UserRoleRow, error) {
	return []UserRoleRow{
		{
			UserID: "user-1",
			RoleID: "role-reviewer",
		},
	}, nil
}

func (m *mockRepo) GetRolePermissions() ([]RolePermissionRow, error) {
	return []RolePermissionRow{
		{
			RoleID:   "role-reviewer",
			Resource: "request",
			Action:   "review",
		},
	}, nil
}

func (m *mockRepo) ListRoles() ([]RoleRow, error)               { return nil, nil }
func (m *mockRepo) GetRoleByID(id string) (*RoleRow, error)     { return nil, nil }
func (m *mockRepo) GetRoleByName(name string) (*RoleRow, error) { return nil, nil }
func (m *mockRepo) CreateRole(role *RoleRow) error              { return nil }
func (m *mockRepo) UpdateRole(role *RoleRow) error              { return nil }
func (m *mockRepo) DeleteRole(id string) error                  { return nil }
func (m *mockRepo) ListPermissions() ([]PermissionRow, error)   { return nil, nil }
func (m *mockRepo) GetPermissionsByRoleID(roleID string) ([]PermissionRow, error) {
	return nil, nil
}
func (m *mockRepo) UpdateRolePermissions(roleID string, permIDs []string) error { return nil }

// =========================================
// Helper: Test Enforcer
// =========================================

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	modelText := `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

	m, err := model.NewModelFromString(modelText)
	assert.NoError(t, err)

	e, err := casbin.NewEnforcer(m)
	assert.NoError(t, err)

	return e
}

// =========================================
// TEST: Load + Enforce
// =========================================

func TestRBACService_Enforce(t *testing.T) {
	repo := &mockRepo{}
	enforcer := newTestEnforcer(t)

	service := NewService(repo, enforcer)

	err := service.LoadPolicy()
	assert.NoError(t, err)

	// Should allow
	allowed, err := service.Enforce(EnforceRequest{
		UserID:   "user-1",
		Resource: "request",
		Action:   "review",
	})
	assert.NoError(t, err)
	assert.True(t, allowed)

	// Different action on the same resource: deny
	allowed, err = service.Enforce(EnforceRequest{
		UserID:   "user-1",
		Resource: "request",
		Action:   "manage",
	})
	assert.NoError(t, err)
	assert.False(t, allowed)

	// User without any role grant: deny
	allowed, err = service.Enforce(EnforceRequest{
		UserID:   "user-2",
		Resource: "request",
		Action:   "review",
	})
	assert.NoError(t, err)
	assert.False(t, allowed)
}
