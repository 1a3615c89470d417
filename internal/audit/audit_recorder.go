package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go-hrms/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder writes audit entries. Record never fails the caller: a failed
// write is logged and dropped.
type Recorder interface {
	WithTx(tx *sql.Tx) Recorder
	Record(ctx context.Context, entry Entry)
}

type dbRecorder struct {
	db     *sql.DB
	tx     *sql.Tx
	now    func() time.Time
	logger *zap.Logger
}

func NewRecorder(db *sql.DB, logger ...*zap.Logger) Recorder {
	l := zap.L().Named("audit.recorder")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.recorder")
	}
	return &dbRecorder{db: db, now: time.Now, logger: l}
}

func (r *dbRecorder) WithTx(tx *sql.Tx) Recorder {
	return &dbRecorder{db: r.db, tx: tx, now: r.now, logger: r.logger}
}

const insertAuditLog = `
INSERT INTO audit_logs (
	id, company_id, actor_id, action, target_type, target_id, details, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Inside a transaction the insert is wrapped in a savepoint so a failed
// audit write does not poison the surrounding transaction.
func (r *dbRecorder) Record(ctx context.Context, entry Entry) {
	log := contextutil.GetLogger(ctx, r.logger)

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	md := contextutil.ExtractMetadata(ctx)
	if entry.ActorID == "" {
		entry.ActorID = md.UserID
	}
	if entry.CompanyID == "" {
		entry.CompanyID = md.CompanyID
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		log.Warn("audit details not serialisable", zap.String("action", entry.Action), zap.Error(err))
		details = []byte("{}")
	}

	var targetID any
	if entry.TargetID != "" {
		targetID = entry.TargetID
	}
	args := []any{
		entry.ID, entry.CompanyID, entry.ActorID, entry.Action,
		entry.TargetType, targetID, details, entry.CreatedAt,
	}

	if r.tx == nil {
		if _, err := r.db.ExecContext(ctx, insertAuditLog, args...); err != nil {
			log.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
		}
		return
	}

	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT audit_record"); err != nil {
		log.Warn("audit savepoint failed", zap.String("action", entry.Action), zap.Error(err))
		return
	}
	if _, err := r.tx.ExecContext(ctx, insertAuditLog, args...); err != nil {
		log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("target_type", entry.TargetType),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT audit_record"); rbErr != nil {
			log.Error("audit savepoint rollback failed", zap.Error(rbErr))
		}
		return
	}
	if _, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT audit_record"); err != nil {
		log.Warn("audit savepoint release failed", zap.Error(err))
	}
}

// StdoutRecorder logs entries instead of storing them. It is used for
// process lifecycle events that have no company or database behind them.
type StdoutRecorder struct {
	logger *zap.Logger
}

func NewStdoutRecorder(logger ...*zap.Logger) *StdoutRecorder {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	return &StdoutRecorder{logger: l}
}

func (r *StdoutRecorder) WithTx(*sql.Tx) Recorder {
	return r
}

func (r *StdoutRecorder) Record(ctx context.Context, entry Entry) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	r.logger.Info("audit event",
		zap.String("timestamp", createdAt.UTC().Format(time.RFC3339)),
		zap.String("company_id", entry.CompanyID),
		zap.String("actor_id", entry.ActorID),
		zap.String("action", entry.Action),
		zap.String("target_type", entry.TargetType),
		zap.String("target_id", entry.TargetID),
		zap.Any("details", entry.Details),
	)
}
