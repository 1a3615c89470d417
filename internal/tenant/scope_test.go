package tenant_test

import (
	"testing"

	"go-hrms/internal/tenant"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type row struct {
	ID        string
	CompanyID string
}

func TestScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DryRun: true})
	assert.NoError(t, err)

	t.Run("plain column", func(t *testing.T) {
		stmt := db.Table("rows").Scopes(tenant.Scope("c-1")).Find(&[]row{}).Statement
		assert.Contains(t, stmt.SQL.String(), "company_id = ?")
		assert.Equal(t, []any{"c-1"}, stmt.Vars)
	})

	t.Run("qualified column", func(t *testing.T) {
		stmt := db.Table("leaves").Scopes(tenant.Scope("c-1", "leaves")).Find(&[]row{}).Statement
		assert.Contains(t, stmt.SQL.String(), "leaves.company_id = ?")
	})
}
