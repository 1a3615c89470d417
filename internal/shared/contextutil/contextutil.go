package contextutil

import (
	"context"

	"go.uber.org/zap"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	actorKey
	loggerKey
)

type actor struct {
	userID    string
	companyID string
}

// Metadata is the request information that outlives the gin context:
// services stamp it on audit entries and outbox events.
type Metadata struct {
	RequestID string
	UserID    string
	CompanyID string
}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

func GetRequestID(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey).(string)
	return rid
}

// WithActor records the authenticated caller.
func WithActor(ctx context.Context, userID, companyID string) context.Context {
	return context.WithValue(ctx, actorKey, actor{userID: userID, companyID: companyID})
}

func GetUserID(ctx context.Context) string {
	a, _ := ctx.Value(actorKey).(actor)
	return a.userID
}

func GetCompanyID(ctx context.Context) string {
	a, _ := ctx.Value(actorKey).(actor)
	return a.companyID
}

func ExtractMetadata(ctx context.Context) Metadata {
	a, _ := ctx.Value(actorKey).(actor)
	return Metadata{
		RequestID: GetRequestID(ctx),
		UserID:    a.userID,
		CompanyID: a.companyID,
	}
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger returns the request logger, then fallback, then a no-op logger.
// It never returns nil.
func GetLogger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}
