package producer

import (
	"context"
	"errors"

	"go-hrms/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafkago.Writer the relay uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

func toMessage(event kafka.OutboxEvent) kafkago.Message {
	headers := []kafkago.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		{Key: "outbox_id", Value: []byte(event.ID)},
	}
	if event.RequestID != "" {
		headers = append(headers, kafkago.Header{Key: "request_id", Value: []byte(event.RequestID)})
	}

	// Keying by aggregate keeps one leave's events in order on a partition.
	return kafkago.Message{
		Topic:   event.Topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
}

// publishBatch writes the batch in one call and returns one error slot per
// event. kafka-go reports per-message failures as WriteErrors; any other
// error fails the whole batch.
func publishBatch(ctx context.Context, writer MessageWriter, events []kafka.OutboxEvent) []error {
	msgs := make([]kafkago.Message, len(events))
	for i, e := range events {
		msgs[i] = toMessage(e)
	}

	errs := make([]error, len(events))
	err := writer.WriteMessages(ctx, msgs...)
	if err == nil {
		return errs
	}

	var writeErrs kafkago.WriteErrors
	if errors.As(err, &writeErrs) && len(writeErrs) == len(events) {
		copy(errs, writeErrs)
		return errs
	}
	for i := range errs {
		errs[i] = err
	}
	return errs
}
