package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/marcim390/financeapp/internal/cli"
	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/services"
)

func main() {
	once := flag.Bool("once", false, "run a single reminder pass and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentReminder)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger, false)
	data := cli.OpenBackend(context.Background(), logger, cfg)
	mailer, closeMailer := cli.NewMailer(logger, cfg)

	processor := services.NewReminderProcessor(data.Gateway, data.KV, mailer, services.ReminderProcessorConfig{
		Interval: cfg.ReminderInterval,
		Workers:  cfg.ReminderWorkers,
		BaseURL:  cfg.AppBaseURL,
	})

	if *once {
		sent, err := processor.ProcessReminders(context.Background(), time.Now())
		closeMailer()
		_ = data.Close()
		if err != nil {
			logger.Error("Reminder pass failed", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Reminder pass complete", "sent", sent)
		return
	}

	logger.Info("Reminder processor configured",
		"interval", cfg.ReminderInterval,
		"workers", cfg.ReminderWorkers,
		"backend", cfg.DataBackend)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Reminder processor did not stop cleanly", log.FieldError, err)
		}
		closeMailer()
		if err := data.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start reminder processor", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker shutdown complete")
}
