// Package kv is a small key-value port for per-profile preferences and
// bookkeeping that does not deserve its own table.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is implemented by the in-memory LRU in this package and by the SQL
// gateway's kv_entries table.
type Store interface {
	// Get returns the value and whether the key exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A ttl of zero keeps the entry until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into dst. It reports false when the key is missing.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

// Key joins namespace parts with ':'.
func Key(parts ...string) string {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, ':')
		}
		b = append(b, p...)
	}
	return string(b)
}
