package infra

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// NewEnforcer builds an enforcer with no adapter; policies are loaded per
// company by the rbac service.
func NewEnforcer(modelPath string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load rbac model %q: %w", modelPath, err)
	}
	return casbin.NewEnforcer(m)
}
