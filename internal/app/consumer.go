package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go-hrms/internal/config"
	"go-hrms/internal/events"
	"go-hrms/internal/messaging/kafka/consumer"
	"go-hrms/internal/notification"
	"go-hrms/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NewMailer picks SMTP delivery when a relay host is configured and falls
// back to logging otherwise.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) notification.Mailer {
	if cfg.Host == "" {
		return notification.NewLogMailer(logger)
	}
	return notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

var notificationTopics = []string{
	events.LeaveNotificationsTopic,
	events.EmployeeLifecycleTopic,
}

// RunConsumer mails leave and onboarding notifications until SIGINT/SIGTERM.
func RunConsumer(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")

	if cfg.Kafka.Broker == "" {
		return errors.New("kafka.broker is required")
	}

	// Without redis a redelivered event is mailed to every recipient again.
	var deliveries notification.DeliveryLog
	if cfg.Redis.Addr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Retries)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deliveries = notification.NewRedisDeliveryLog(rdb)
	}

	notifier := notification.NewService(NewMailer(cfg.Mail, logger), deliveries, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		GroupTopics:    notificationTopics,
		GroupID:        cfg.Kafka.ConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("consuming notifications",
		zap.Strings("topics", notificationTopics),
		zap.String("group", cfg.Kafka.ConsumerGroup),
	)
	consumer.ConsumeNotifications(ctx, reader, notifier, logger)

	log.Info("consumer shutting down")
	return nil
}
