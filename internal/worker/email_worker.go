// Package worker holds the notify worker that drains the email queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcim390/financeapp/internal/amqp"
	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/metrics"
)

// Consumer is the part of the AMQP client the worker needs.
type Consumer interface {
	ConsumeEmails(ctx context.Context, handler func(context.Context, *amqp.EmailMessage) error) error
}

type Config struct {
	// MaxAge drops messages queued longer ago than this (default: 24h)
	MaxAge time.Duration

	// RetryDelay is waited before a failed delivery is requeued (default: 5s)
	RetryDelay time.Duration
}

// EmailWorker delivers queued emails through a Dispatcher, normally SMTP.
// Malformed or stale messages are acknowledged and dropped; transport
// failures are requeued after RetryDelay.
type EmailWorker struct {
	consumer Consumer
	deliver  func(context.Context, *amqp.EmailMessage) error
	config   Config
	now      func() time.Time
}

func NewEmailWorker(consumer Consumer, dispatcher email.Dispatcher, config Config) *EmailWorker {
	if config.MaxAge <= 0 {
		config.MaxAge = 24 * time.Hour
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	return &EmailWorker{
		consumer: consumer,
		deliver:  email.Deliver(dispatcher),
		config:   config,
		now:      time.Now,
	}
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (w *EmailWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Email worker started", "max_age", w.config.MaxAge)
	err := w.consumer.ConsumeEmails(ctx, w.HandleEmail)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleEmail processes a single queued email. A nil return acknowledges it.
func (w *EmailWorker) HandleEmail(ctx context.Context, msg *amqp.EmailMessage) error {
	if err := validate(msg); err != nil {
		slog.WarnContext(ctx, "Dropping malformed email message",
			"type", msg.Type,
			"error", err)
		metrics.Emails.WithLabelValues(msg.Type, "dropped").Inc()
		return nil
	}

	if !msg.Timestamp.IsZero() && w.now().Sub(msg.Timestamp) > w.config.MaxAge {
		slog.WarnContext(ctx, "Dropping stale email message",
			"type", msg.Type,
			"to", msg.To,
			"queued_at", msg.Timestamp.Format(time.RFC3339))
		metrics.Emails.WithLabelValues(msg.Type, "dropped").Inc()
		return nil
	}

	err := w.deliver(ctx, msg)
	if err != nil {
		metrics.Emails.WithLabelValues(msg.Type, "retry").Inc()
		slog.ErrorContext(ctx, "Failed to deliver email",
			"type", msg.Type,
			"to", msg.To,
			"error", err)
		select {
		case <-ctx.Done():
		case <-time.After(w.config.RetryDelay):
		}
		return fmt.Errorf("deliver %s email: %w", msg.Type, err)
	}

	metrics.Emails.WithLabelValues(msg.Type, "delivered").Inc()
	slog.InfoContext(ctx, "Delivered email",
		"type", msg.Type,
		"to", msg.To)
	return nil
}

func validate(msg *amqp.EmailMessage) error {
	if err := email.ValidateAddress(msg.To); err != nil {
		return err
	}
	if msg.Subject == "" {
		return errors.New("empty subject")
	}
	if msg.HTML == "" {
		return errors.New("empty body")
	}
	return nil
}
