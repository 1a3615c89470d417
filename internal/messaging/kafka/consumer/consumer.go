package consumer

import (
	"context"
	"encoding/json"

	"go-hrms/internal/events"
	"go-hrms/internal/notification"
	"go-hrms/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeNotifications turns notification events into mail until ctx is done.
// Messages that can never be delivered are committed and skipped; delivery
// failures stay uncommitted so the group redelivers them.
func ConsumeNotifications(
	ctx context.Context,
	reader MessageReader,
	notifier notification.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.notifications")
	log.Info("notification consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("notification consumer stopped")
				return
			}
			log.Error("fetch notification message failed", zap.Error(err))
			continue
		}

		handleMessage(ctx, reader, notifier, log, msg)
	}
}

func handleMessage(
	ctx context.Context,
	reader MessageReader,
	notifier notification.Service,
	log *zap.Logger,
	msg kafkago.Message,
) {
	eventType := headerValue(msg, "event_type")

	var env events.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		log.Error("decode notification envelope failed",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		commit(ctx, reader, log, msg)
		return
	}
	if eventType == "" {
		eventType = env.EventType
	}

	rid := env.RequestID
	if rid == "" {
		rid = headerValue(msg, "request_id")
	}
	msgLog := log.With(
		zap.String("request_id", rid),
		zap.String("event_type", eventType),
		zap.String("company_id", env.CompanyID),
	)
	msgCtx := contextutil.WithLogger(contextutil.WithRequestID(ctx, rid), msgLog)

	if err := notifier.Handle(msgCtx, eventType, msg.Value); err != nil {
		if notification.IsPermanent(err) {
			msgLog.Warn("skipping undeliverable notification", zap.Error(err))
			commit(ctx, reader, msgLog, msg)
			return
		}
		msgLog.Error("dispatch notification failed", zap.Error(err))
		return
	}

	commit(ctx, reader, msgLog, msg)
}

func commit(ctx context.Context, reader MessageReader, log *zap.Logger, msg kafkago.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit notification message failed", zap.Error(err))
	}
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
