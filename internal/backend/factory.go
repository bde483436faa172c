package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marcim390/financeapp/internal/kv"
	"github.com/marcim390/financeapp/internal/services"
	"github.com/marcim390/financeapp/internal/storage"
	"github.com/marcim390/financeapp/internal/storage/memory"
)

var (
	_ services.Gateway = (*storage.Store)(nil)
	_ services.Gateway = (*memory.Store)(nil)
	_ kv.Store         = (*storage.KVStore)(nil)
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return sqlResult(store), nil
	case PostgresBackend:
		store, err := storage.NewPostgresStore(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return sqlResult(store), nil
	case MemoryBackend:
		return f.createMemoryBackend(config), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func sqlResult(store *storage.Store) *BackendResult {
	return &BackendResult{
		Gateway: store,
		KV:      store.KV(),
		Ping:    store.Ping,
		Cleanup: store.Close,
	}
}

// createMemoryBackend keeps everything in process. Data is lost on exit.
func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	capacity := config.KVCapacity
	if capacity <= 0 {
		capacity = defaultKVCapacity
	}
	store := memory.New()

	f.logger.Warn("Initialized memory backend, data will not survive a restart")

	return &BackendResult{
		Gateway: store,
		KV:      kv.NewMemory(capacity),
		Ping:    store.Ping,
		Cleanup: store.Close,
	}
}
