// Package cache holds the last observed instance snapshot so repeated chat
// commands debounce instead of hammering the provider API. The cloud provider
// owns the authoritative state; everything here expires after a short TTL.
package cache

import (
	"sync"
	"time"

	"github.com/minefleet/spindle/internal/models"
)

// StateCache remembers the last observed instance snapshot with a TTL
type StateCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	snapshot models.Instance
	storedAt time.Time
	valid    bool

	// now is swappable for tests
	now func() time.Time
}

// New creates a StateCache with the given TTL
func New(ttl time.Duration) *StateCache {
	return &StateCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached snapshot if it is still fresh
func (c *StateCache) Get() (models.Instance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || c.now().Sub(c.storedAt) > c.ttl {
		return models.Instance{}, false
	}
	return c.snapshot, true
}

// Put stores a freshly observed snapshot
func (c *StateCache) Put(snapshot models.Instance) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = snapshot
	c.storedAt = c.now()
	c.valid = true
}

// MarkTransition overwrites the cached lifecycle state after a mutating call
// succeeded, so an immediate repeat command sees the transitional state
// without another describe round-trip. The public IP is cleared; it is stale
// the moment the instance starts moving.
func (c *StateCache) MarkTransition(state models.InstanceState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot.State = state
	c.snapshot.PublicIP = ""
	c.snapshot.ObservedAt = c.now()
	c.storedAt = c.now()
	c.valid = true
}

// Invalidate drops the cached snapshot
func (c *StateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
}
