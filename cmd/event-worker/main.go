// Command event-worker tails transaction change events from AMQP and logs
// them for operators.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"expense-tracker/internal/config"
	"expense-tracker/internal/events"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Events.AMQPURL == "" {
		logger.Fatalf("EXPENSE_EVENTS_AMQPURL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := events.NewAMQPClient(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.Queue, logger)
	if err != nil {
		logger.Fatalf("connect amqp: %v", err)
	}
	defer client.Close()

	err = client.Consume(ctx, func(_ context.Context, e *events.TransactionEvent) error {
		logger.WithFields(logrus.Fields{
			"type":           e.Type,
			"transaction_id": e.TransactionID,
			"user_id":        e.UserID,
			"category":       e.Category,
			"payment_type":   e.PaymentType,
			"amount":         e.Amount,
			"occurred_at":    e.OccurredAt,
		}).Info("transaction event")
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("consume: %v", err)
	}
	logger.Info("bye")
}
