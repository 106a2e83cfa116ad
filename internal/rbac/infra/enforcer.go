package infra

import "github.com/casbin/casbin/v2"

// NewEnforcer builds an enforcer from the model file alone; policy rows are
// loaded from Postgres by the rbac service, not from a casbin adapter.
func NewEnforcer(modelPath string) (*casbin.Enforcer, error) {
	return casbin.NewEnforcer(modelPath)
}
