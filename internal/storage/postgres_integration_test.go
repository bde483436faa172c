//go:build integration

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marcim390/financeapp/internal/services"
	"github.com/marcim390/financeapp/internal/storage"
)

// TestPostgresGateway runs the gateway suite against a throwaway Postgres.
// Run with: go test -tags integration ./internal/storage/...
func TestPostgresGateway(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("financeapp"),
		postgres.WithUsername("financeapp"),
		postgres.WithPassword("financeapp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := storage.NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	truncate := func() {
		_, err := storage.ExecForTest(st, ctx,
			`TRUNCATE kv_entries, notifications, recurring_expenses, expenses, categories,
			 invitations, couple_members, couples, profiles`)
		require.NoError(t, err)
	}

	suite.Run(t, &GatewaySuite{newGateway: func() services.Gateway {
		truncate()
		return st
	}})
}
