package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/marcim390/financeapp/internal/cli"
	apphttp "github.com/marcim390/financeapp/internal/http"
	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, true)

	data := cli.OpenBackend(context.Background(), logger, cfg)
	mailer, closeMailer := cli.NewMailer(logger, cfg)

	accounts := services.NewAccountService(data.Gateway)
	svc := apphttp.Services{
		Accounts: accounts,
		Invitations: services.NewInvitationService(data.Gateway, mailer, services.InvitationConfig{
			TTL:     cfg.InvitationTTL,
			BaseURL: cfg.AppBaseURL,
		}),
		Expenses:      services.NewExpenseService(data.Gateway, accounts),
		Recurring:     services.NewRecurringService(data.Gateway, accounts),
		Notifications: services.NewNotificationService(data.Gateway, data.KV, mailer),
	}

	srv, err := apphttp.NewServer(net.JoinHostPort("", cfg.Port), svc, apphttp.Options{
		JWTSecret:          []byte(cfg.JWTSecret),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              data.Ping,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to configure server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		closeMailer()
		if err := data.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})

	logger.Info("Starting financeapp server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
