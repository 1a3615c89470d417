package producer

import (
	"context"
	"time"

	"go-hrms/internal/messaging/kafka"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultBatchSize    = 50
)

// ProcessOutboxEvents relays pending outbox rows to Kafka until ctx is done.
// Failed rows are rescheduled by the repository with a linear backoff until
// they run out of attempts. Several relays may run against the same table.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	pollInterval time.Duration,
	batchSize int,
) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started",
		zap.Duration("poll_interval", pollInterval),
		zap.Int("batch_size", batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := processPendingEvents(ctx, repo, writer, log, batchSize); err != nil {
				log.Error("process outbox events failed", zap.Error(err))
			}
		}
	}
}

// processPendingEvents publishes one claimed batch and reports how many rows
// were sent.
func processPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	batchSize int,
) (int, error) {
	events, err := repo.ClaimPending(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	logger.Debug("publishing outbox batch", zap.Int("count", len(events)))

	sent := 0
	for i, publishErr := range publishBatch(ctx, writer, events) {
		event := events[i]
		fields := []zap.Field{
			zap.String("outbox_id", event.ID),
			zap.String("request_id", event.RequestID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
		}

		if publishErr != nil {
			attempt := event.RetryCount + 1
			if attempt >= kafka.MaxOutboxAttempts {
				logger.Error("outbox event dead after final attempt", append(fields, zap.Int("attempt", attempt), zap.Error(publishErr))...)
			} else {
				logger.Warn("publish outbox event failed", append(fields, zap.Int("attempt", attempt), zap.Error(publishErr))...)
			}
			if err := repo.MarkFailed(ctx, event.ID, publishErr.Error()); err != nil {
				logger.Error("mark outbox event failed", zap.String("outbox_id", event.ID), zap.Error(err))
			}
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			// The lease runs out and the event is published again; consumers
			// see it twice.
			logger.Error("mark outbox event sent", zap.String("outbox_id", event.ID), zap.Error(err))
			continue
		}

		sent++
		logger.Info("outbox event sent", fields...)
	}

	return sent, nil
}
