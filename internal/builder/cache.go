package builder

import "sync"

// Cache holds the builder's serialized graph under a readers-writer lock:
// the scrape loop is the sole writer and holds the lock only long enough to
// swap the pointer; HTTP handlers are concurrent readers.
type Cache struct {
	mu   sync.RWMutex
	json []byte
}

// Get returns the currently cached JSON document. The returned slice must
// not be mutated by the caller.
func (c *Cache) Get() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.json
}

// Set atomically replaces the cached JSON document.
func (c *Cache) Set(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.json = data
}

// Health tracks the builder's liveness and readiness flags under a
// readers-writer lock with a trivially short critical section.
type Health struct {
	mu    sync.RWMutex
	live  bool
	ready bool
}

// Live reports whether the process should be considered alive.
func (h *Health) Live() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.live
}

// Ready reports whether at least one scrape has completed successfully.
func (h *Health) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// SetLive sets the liveness flag.
func (h *Health) SetLive(live bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = live
}

// SetReady sets the readiness flag. Once true it is never the scrape loop's
// job to set it back to false; a reader observing ready=true is guaranteed
// the cache holds a complete prior scrape.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}
