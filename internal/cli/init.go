// Package cli provides common CLI initialization utilities shared by the
// financeapp, notify-worker and recurring-worker binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marcim390/financeapp/internal/amqp"
	"github.com/marcim390/financeapp/internal/backend"
	"github.com/marcim390/financeapp/internal/config"
	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL/LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(component string) *log.Logger {
	return log.Setup(component)
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// When api is set the HTTP-only settings are checked too.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger, api bool) *config.Config {
	cfg := config.Load()
	validate := cfg.Validate
	if api {
		validate = cfg.ValidateAPI
	}
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured data backend or exits the process.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// DirectMailer returns the dispatcher that talks to SMTP without a queue,
// or a logging dispatcher when SMTP is not configured.
func DirectMailer(cfg *config.Config) email.Dispatcher {
	if cfg.SMTPHost == "" {
		return email.LogDispatcher{}
	}
	return email.NewSMTPDispatcher(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	})
}

// NewMailer returns the dispatcher services send through. With AMQP
// configured mail is queued for the notify worker; if the broker cannot
// be reached the process falls back to DirectMailer.
// The returned cleanup func is never nil.
func NewMailer(logger *log.Logger, cfg *config.Config) (email.Dispatcher, func()) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, sending email directly", "smtp", cfg.SMTPHost != "")
		return DirectMailer(cfg), func() {}
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, sending email directly", log.FieldError, err)
		return DirectMailer(cfg), func() {}
	}
	logger.Info("AMQP client initialized, email goes through notify-worker", "queue", cfg.AMQPQueue)
	return email.NewQueueDispatcher(client), func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has run or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
