package main

import (
	"context"
	"os"
	"time"

	"github.com/marcim390/financeapp/internal/amqp"
	"github.com/marcim390/financeapp/internal/cli"
	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting notify-worker")

	cfg := cli.LoadAndValidateConfig(logger, false)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for notify-worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	// Queued mail is always delivered directly; re-queueing it would loop.
	w := worker.NewEmailWorker(client, cli.DirectMailer(cfg), worker.Config{})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	logger.Info("Consuming email queue", "queue", cfg.AMQPQueue, "smtp", cfg.SMTPHost != "")
	if err := w.Run(ctx); err != nil {
		logger.Error("Email worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Notify-worker shutdown complete")
}
