package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-hrms/internal/events"
	"go-hrms/internal/notification"
	notificationMock "go-hrms/internal/notification/mock"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	assert.NoError(t, err)
	return b
}

// memoryDeliveries is a DeliveryLog kept in a map.
type memoryDeliveries map[string]bool

func (m memoryDeliveries) Delivered(_ context.Context, key string) (bool, error) {
	return m[key], nil
}

func (m memoryDeliveries) MarkDelivered(_ context.Context, key string) error {
	m[key] = true
	return nil
}

func TestService_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("leave submitted goes to employee and approver", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mailer := notificationMock.NewMockMailer(ctrl)
		svc := notification.NewService(mailer, nil, zap.NewNop())

		payload := mustJSON(t, events.LeaveEvent{
			EventType:     events.EventLeaveSubmitted,
			EmployeeName:  "Dina",
			EmployeeEmail: "dina@example.com",
			ApproverEmail: "lead@example.com",
			LeaveType:     "annual",
			StartDate:     "2026-03-02",
			EndDate:       "2026-03-06",
			Days:          5,
			Reason:        "Family wedding in Bandung",
			Status:        "pending",
		})

		var got []notification.Message
		mailer.EXPECT().Send(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.Message) error {
			got = append(got, msg)
			return nil
		}).Times(2)

		assert.NoError(t, svc.Handle(ctx, events.EventLeaveSubmitted, payload))
		assert.Equal(t, "dina@example.com", got[0].To)
		assert.Equal(t, "lead@example.com", got[1].To)
		assert.Equal(t, "Leave request submitted: Dina (annual)", got[0].Subject)
		assert.Contains(t, got[0].Body, "from 2026-03-02 to 2026-03-06 (5 working days)")
		assert.Contains(t, got[1].Body, "Reason: Family wedding in Bandung")
	})

	t.Run("status change goes to employee only", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mailer := notificationMock.NewMockMailer(ctrl)
		svc := notification.NewService(mailer, nil, zap.NewNop())

		payload := mustJSON(t, events.LeaveEvent{
			EventType:     events.EventLeaveStatusChanged,
			EmployeeName:  "Dina",
			EmployeeEmail: "dina@example.com",
			ApproverEmail: "lead@example.com",
			LeaveType:     "sick",
			StartDate:     "2026-03-02",
			EndDate:       "2026-03-02",
			Days:          1,
			OldStatus:     "pending",
			Status:        "approved",
			Reason:        "Fever",
			Notes:         "get well",
		})

		mailer.EXPECT().Send(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.Message) error {
			assert.Equal(t, "dina@example.com", msg.To)
			assert.Equal(t, "Your leave request is approved", msg.Subject)
			assert.Contains(t, msg.Body, "changed from pending to approved")
			assert.Contains(t, msg.Body, "Reason given: Fever")
			assert.Contains(t, msg.Body, "Notes: get well")
			return nil
		})

		assert.NoError(t, svc.Handle(ctx, events.EventLeaveStatusChanged, payload))
	})

	t.Run("employee created welcome mail", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mailer := notificationMock.NewMockMailer(ctrl)
		svc := notification.NewService(mailer, nil, zap.NewNop())

		payload := mustJSON(t, events.EmployeeCreatedEvent{
			EventType:   events.EventEmployeeCreated,
			FullName:    "Raka",
			Email:       "raka@example.com",
			StaffNumber: "EMP-000007",
			DateOfJoin:  "2026-04-01",
		})

		mailer.EXPECT().Send(ctx, notification.Message{
			To:      "raka@example.com",
			Subject: "Welcome aboard, Raka",
			Body:    "Hello Raka,\n\nYour employee record has been created with staff number EMP-000007.\nYour first working day is 2026-04-01.\n",
		}).Return(nil)

		assert.NoError(t, svc.Handle(ctx, events.EventEmployeeCreated, payload))
	})

	t.Run("malformed payload is permanent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := notification.NewService(notificationMock.NewMockMailer(ctrl), nil, zap.NewNop())

		err := svc.Handle(ctx, events.EventLeaveSubmitted, []byte("{not json"))

		assert.ErrorIs(t, err, notification.ErrMalformedEvent)
		assert.True(t, notification.IsPermanent(err))
	})

	t.Run("unknown event is permanent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := notification.NewService(notificationMock.NewMockMailer(ctrl), nil, zap.NewNop())

		err := svc.Handle(ctx, "payroll_closed", []byte(`{}`))

		assert.ErrorIs(t, err, notification.ErrUnknownEvent)
		assert.True(t, notification.IsPermanent(err))
	})

	t.Run("delivery failure is retryable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mailer := notificationMock.NewMockMailer(ctrl)
		svc := notification.NewService(mailer, nil, zap.NewNop())

		mailer.EXPECT().Send(ctx, gomock.Any()).Return(errors.New("connection refused"))

		err := svc.Handle(ctx, events.EventEmployeeCreated, mustJSON(t, events.EmployeeCreatedEvent{Email: "raka@example.com"}))

		assert.Error(t, err)
		assert.False(t, notification.IsPermanent(err))
	})

	t.Run("redelivery only retries the recipients that failed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mailer := notificationMock.NewMockMailer(ctrl)
		svc := notification.NewService(mailer, memoryDeliveries{}, zap.NewNop())

		payload := mustJSON(t, events.LeaveEvent{
			EventType:     events.EventLeaveSubmitted,
			EmployeeName:  "Dina",
			EmployeeEmail: "dina@example.com",
			ApproverEmail: "lead@example.com",
			LeaveType:     "annual",
			Days:          1,
		})

		gomock.InOrder(
			mailer.EXPECT().Send(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.Message) error {
				assert.Equal(t, "dina@example.com", msg.To)
				return nil
			}),
			mailer.EXPECT().Send(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.Message) error {
				assert.Equal(t, "lead@example.com", msg.To)
				return errors.New("mailbox busy")
			}),
			mailer.EXPECT().Send(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.Message) error {
				assert.Equal(t, "lead@example.com", msg.To)
				return nil
			}),
		)

		err := svc.Handle(ctx, events.EventLeaveSubmitted, payload)
		assert.ErrorContains(t, err, "lead@example.com")
		assert.False(t, notification.IsPermanent(err))

		assert.NoError(t, svc.Handle(ctx, events.EventLeaveSubmitted, payload))
	})

	t.Run("one failed recipient does not hold back the others", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mailer := notificationMock.NewMockMailer(ctrl)
		svc := notification.NewService(mailer, nil, zap.NewNop())

		payload := mustJSON(t, events.LeaveEvent{
			EmployeeEmail: "dina@example.com",
			ApproverEmail: "lead@example.com",
		})

		mailer.EXPECT().Send(ctx, gomock.Any()).Return(errors.New("rejected"))
		mailer.EXPECT().Send(ctx, gomock.Any()).Return(nil)

		assert.Error(t, svc.Handle(ctx, events.EventLeaveSubmitted, payload))
	})

	t.Run("missing recipient is skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := notification.NewService(notificationMock.NewMockMailer(ctrl), nil, zap.NewNop())

		assert.NoError(t, svc.Handle(ctx, events.EventEmployeeCreated, mustJSON(t, events.EmployeeCreatedEvent{FullName: "Raka"})))
	})
}

func TestRender_UnknownEvent(t *testing.T) {
	_, _, err := notification.Render("nope", nil)
	assert.ErrorIs(t, err, notification.ErrUnknownEvent)
}

func TestRedisDeliveryLog(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	deliveries := notification.NewRedisDeliveryLog(rdb)
	key := notification.DeliveryKey(events.EventLeaveSubmitted, []byte(`{"leave_id":"1"}`), "Lead@Example.com")

	assert.Equal(t, notification.DeliveryKey(events.EventLeaveSubmitted, []byte(`{"leave_id":"1"}`), "lead@example.com"), key)
	assert.NotEqual(t, notification.DeliveryKey(events.EventLeaveSubmitted, []byte(`{"leave_id":"2"}`), "lead@example.com"), key)

	mock.ExpectExists(key).SetVal(0)
	mock.ExpectSet(key, "1", 7*24*time.Hour).SetVal("OK")
	mock.ExpectExists(key).SetVal(1)

	done, err := deliveries.Delivered(ctx, key)
	assert.NoError(t, err)
	assert.False(t, done)
	assert.NoError(t, deliveries.MarkDelivered(ctx, key))
	done, err = deliveries.Delivered(ctx, key)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}
