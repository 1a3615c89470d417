package counter

import (
	"context"
	"database/sql"
	"fmt"

	"go-hrms/internal/shared/connection"

	"gorm.io/gorm"
)

// globalScope keys sequences that are not owned by a single company.
const globalScope = "00000000-0000-0000-0000-000000000000"

// Sequence names a gapless counter and how its values are rendered.
// An empty Scope makes the sequence global.
type Sequence struct {
	Name   string
	Scope  string
	Prefix string
	Width  int
}

// StaffNumber numbers employees across every company.
var StaffNumber = Sequence{Name: "staff_number", Prefix: "EMP-", Width: 6}

func (s Sequence) Format(value int64) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.Width, value)
}

func (s Sequence) scope() string {
	if s.Scope == "" {
		return globalScope
	}
	return s.Scope
}

//go:generate mockgen -source=counter_repo.go -destination=mock/counter_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Next(ctx context.Context, seq Sequence) (string, error)
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

// Next bumps the sequence and returns the formatted value. Run it inside the
// transaction that stores the numbered row so a rollback gives the value back.
func (r *repository) Next(ctx context.Context, seq Sequence) (string, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO company_counters (company_id, counter_type, last_value, updated_at)
		VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (company_id, counter_type) DO UPDATE
		SET last_value = company_counters.last_value + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING last_value
	`, seq.scope(), seq.Name).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("next %s: %w", seq.Name, err)
	}
	return seq.Format(value), nil
}
