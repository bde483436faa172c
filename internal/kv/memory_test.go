package kv

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestMemory(size int) (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(size)
	m.now = clock.Now
	return m, clock
}

func TestMemoryEviction(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(3)

	for _, k := range []string{"key1", "key2", "key3", "key4"} {
		if err := m.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	if _, found, _ := m.Get(ctx, "key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if v, found, _ := m.Get(ctx, k); !found || string(v) != k {
			t.Errorf("%s should still exist", k)
		}
	}
}

func TestMemoryRecentlyUsedSurvives(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(2)
	_ = m.Set(ctx, "a", []byte("1"), 0)
	_ = m.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = m.Get(ctx, "a")
	_ = m.Set(ctx, "c", []byte("3"), 0) // evicts b

	if _, found, _ := m.Get(ctx, "b"); found {
		t.Error("b should have been evicted")
	}
	if _, found, _ := m.Get(ctx, "a"); !found {
		t.Error("a should survive")
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestMemory(100)

	_ = m.Set(ctx, "short", []byte("x"), time.Minute)
	_ = m.Set(ctx, "forever", []byte("y"), 0)

	if _, found, _ := m.Get(ctx, "short"); !found {
		t.Fatal("short should exist immediately")
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if _, found, _ := m.Get(ctx, "short"); found {
		t.Error("short should have expired")
	}
	if _, found, _ := m.Get(ctx, "forever"); !found {
		t.Error("entries without ttl never expire")
	}
}

func TestMemoryCleanExpired(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestMemory(100)
	for _, k := range []string{"k1", "k2", "k3"} {
		_ = m.Set(ctx, k, []byte(k), time.Second)
	}
	_ = m.Set(ctx, "keep", []byte("v"), time.Hour)

	clock.t = clock.t.Add(time.Minute)
	if removed := m.CleanExpired(); removed != 3 {
		t.Errorf("expected 3 items cleaned, got %d", removed)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", m.Len())
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	type prefs struct {
		Enabled bool `json:"enabled"`
		Days    int  `json:"days"`
	}

	var got prefs
	found, err := GetJSON(ctx, m, "missing", &got)
	if err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}

	key := Key("settings", "user-1")
	if key != "settings:user-1" {
		t.Fatalf("unexpected key %q", key)
	}
	if err := SetJSON(ctx, m, key, prefs{Enabled: true, Days: 3}, 0); err != nil {
		t.Fatal(err)
	}
	found, err = GetJSON(ctx, m, key, &got)
	if err != nil || !found || !got.Enabled || got.Days != 3 {
		t.Fatalf("round trip: %+v found=%v err=%v", got, found, err)
	}
}

func BenchmarkMemory(b *testing.B) {
	ctx := context.Background()
	m := NewMemory(1000)
	val := []byte("value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			_ = m.Set(ctx, "bench-key", val, time.Hour)
		} else {
			_, _, _ = m.Get(ctx, "bench-key")
		}
	}
}
