package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-hrms/internal/events"
	"go-hrms/internal/shared/contextutil"

	"go.uber.org/zap"
)

var (
	// ErrMalformedEvent marks payloads that will never decode; the consumer
	// commits them instead of retrying.
	ErrMalformedEvent = errors.New("malformed notification event")
	ErrUnknownEvent   = errors.New("unknown notification event")
)

type Service interface {
	Handle(ctx context.Context, eventType string, payload []byte) error
}

type service struct {
	mailer     Mailer
	deliveries DeliveryLog
	logger     *zap.Logger
}

// NewService builds the notifier. A nil deliveries resends to every
// recipient when an event is redelivered.
func NewService(mailer Mailer, deliveries DeliveryLog, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	if deliveries == nil {
		deliveries = noDeliveryLog{}
	}
	return &service{mailer: mailer, deliveries: deliveries, logger: l}
}

// IsPermanent reports whether retrying the same message can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrUnknownEvent)
}

func (s *service) Handle(ctx context.Context, eventType string, payload []byte) error {
	var (
		data       any
		recipients []string
	)

	switch eventType {
	case events.EventLeaveSubmitted, events.EventLeaveStatusChanged:
		var evt events.LeaveEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		data = evt
		recipients = []string{evt.EmployeeEmail}
		if eventType == events.EventLeaveSubmitted {
			recipients = append(recipients, evt.ApproverEmail)
		}
	case events.EventEmployeeCreated:
		var evt events.EmployeeCreatedEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		data = evt
		recipients = []string{evt.Email}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, eventType)
	}

	subject, body, err := Render(eventType, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	log := contextutil.GetLogger(ctx, s.logger)
	targets := dedupe(recipients)
	if len(targets) == 0 {
		log.Warn("notification has no recipient", zap.String("event_type", eventType))
		return nil
	}

	var (
		sent, skipped int
		failures      []error
	)
	for _, to := range targets {
		key := DeliveryKey(eventType, payload, to)
		done, err := s.deliveries.Delivered(ctx, key)
		if err != nil {
			log.Warn("delivery log unavailable", zap.String("event_type", eventType), zap.Error(err))
		}
		if done {
			skipped++
			continue
		}

		if err := s.mailer.Send(ctx, Message{To: to, Subject: subject, Body: body}); err != nil {
			failures = append(failures, fmt.Errorf("send %s to %s: %w", eventType, to, err))
			continue
		}
		sent++
		if err := s.deliveries.MarkDelivered(ctx, key); err != nil {
			log.Warn("delivery not recorded", zap.String("event_type", eventType), zap.Error(err))
		}
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}

	log.Info("notification dispatched",
		zap.String("event_type", eventType),
		zap.Int("recipients", sent),
		zap.Int("already_delivered", skipped),
	)
	return nil
}

func dedupe(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
