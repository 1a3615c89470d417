package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go-hrms/internal/events"
	"go-hrms/internal/notification"
	"go-hrms/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeReader struct {
	messages  []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.messages) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type fakeNotifier struct {
	results    map[string]error
	requestIDs []string
	handled    []string
}

func (n *fakeNotifier) Handle(ctx context.Context, eventType string, _ []byte) error {
	n.handled = append(n.handled, eventType)
	n.requestIDs = append(n.requestIDs, contextutil.GetRequestID(ctx))
	return n.results[eventType]
}

func message(offset int64, eventType, body string) kafkago.Message {
	return kafkago.Message{
		Topic:   events.LeaveNotificationsTopic,
		Offset:  offset,
		Value:   []byte(body),
		Headers: []kafkago.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
}

func TestConsumeNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		messages: []kafkago.Message{
			message(1, events.EventLeaveSubmitted, `{"event_type":"leave_submitted","request_id":"req-1"}`),
			message(2, events.EventLeaveStatusChanged, `{not json`),
			message(3, events.EventLeaveStatusChanged, `{"event_type":"leave_status_changed"}`),
			message(4, "payroll_closed", `{"event_type":"payroll_closed"}`),
		},
	}
	notifier := &fakeNotifier{results: map[string]error{
		events.EventLeaveStatusChanged: errors.New("smtp timeout"),
		"payroll_closed":               fmt.Errorf("%w: payroll_closed", notification.ErrUnknownEvent),
	}}

	ConsumeNotifications(ctx, reader, notifier, zap.NewNop())

	assert.Equal(t, []string{events.EventLeaveSubmitted, events.EventLeaveStatusChanged, "payroll_closed"}, notifier.handled)
	assert.Equal(t, "req-1", notifier.requestIDs[0])
	// offset 3 failed transiently and must be redelivered
	assert.Equal(t, []int64{1, 2, 4}, reader.committed)
}
