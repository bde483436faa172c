package kv

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an LRU store with per-entry TTL and size-based eviction.
type Memory struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

type entry struct {
	key       string
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemory creates a store holding at most maxSize entries.
func NewMemory(maxSize int) *Memory {
	return &Memory{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		return nil, false, nil
	}
	item := elem.Value.(*entry)
	if item.expired(c.now()) {
		c.removeElement(elem)
		return nil, false, nil
	}
	c.lru.MoveToFront(elem)
	out := make([]byte, len(item.data))
	copy(out, item.data)
	return out, true, nil
}

func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &entry{key: key, data: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return nil
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.maxSize > 0 && c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
	return nil
}

func (c *Memory) removeElement(elem *list.Element) {
	item := elem.Value.(*entry)
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries and returns how many were removed.
func (c *Memory) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if elem.Value.(*entry).expired(now) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Len returns the current number of entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// StartCleanup evicts expired entries every interval until Stop is called.
func (c *Memory) StartCleanup(interval time.Duration) {
	c.stopCleanup = make(chan struct{})
	c.cleanupDone = make(chan struct{})
	go func() {
		defer close(c.cleanupDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine started by StartCleanup.
func (c *Memory) Stop() {
	if c.stopCleanup != nil {
		close(c.stopCleanup)
		<-c.cleanupDone
		c.stopCleanup = nil
	}
}
