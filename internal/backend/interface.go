// Package backend builds the persistence gateway selected by configuration.
package backend

import (
	"context"

	"github.com/marcim390/financeapp/internal/kv"
	"github.com/marcim390/financeapp/internal/services"
)

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// BackendResult is an opened gateway and the key-value store that lives next to it.
type BackendResult struct {
	Gateway services.Gateway
	KV      kv.Store
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory specific: capacity of the in-process key-value cache
	KVCapacity int
}

type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
