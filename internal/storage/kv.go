package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcim390/financeapp/internal/core"
)

// KVStore persists kv entries in the kv_entries table.
type KVStore struct {
	s   *Store
	now func() time.Time
}

// KV returns the kv.Store view of the database.
func (s *Store) KV() *KVStore {
	return &KVStore{s: s, now: time.Now}
}

func (k *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value   []byte
		expires timeScanner
	)
	err := k.s.queryRow(ctx, `SELECT value, expires_at FROM kv_entries WHERE key = ?`, key).Scan(&value, &expires)
	if err != nil {
		if err = mapError(err); errors.Is(err, core.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get kv %s: %w", key, err)
	}
	if expires.valid && k.now().After(expires.t) {
		if _, err := k.s.exec(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("expire kv %s: %w", key, mapError(err))
		}
		return nil, false, nil
	}
	return value, true, nil
}

func (k *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expires any
	if ttl > 0 {
		expires = k.s.ts(k.now().Add(ttl))
	}
	_, err := k.s.exec(ctx, `INSERT INTO kv_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expires)
	if err != nil {
		return fmt.Errorf("set kv %s: %w", key, mapError(err))
	}
	return nil
}

func (k *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := k.s.exec(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, mapError(err))
	}
	return nil
}
