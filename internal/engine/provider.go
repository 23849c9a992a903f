package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StateProvider is the injected capability the engine reads sensor state
// through. Implementations must be resilient to missing or unavailable
// sources and return the supplied default instead of failing; the engine
// never retries a read.
type StateProvider interface {
	// Read returns the current state of a source, or def when the source
	// is missing or unavailable.
	Read(ctx context.Context, id string, def string) string

	// ReadAttribute returns one attribute of a source, or def.
	ReadAttribute(ctx context.Context, id string, attribute string, def string) string
}

// StateCache memoises provider reads for the duration of one batch run.
//
// It is an explicit run-scoped object: the orchestrator resets it at the
// start of every run, and a bounded TTL expires entries even if a reset
// is missed, so no cross-run staleness can hide inside the engine.
//
// Thread Safety: safe for concurrent use by parallel window workers.
type StateCache struct {
	provider StateProvider
	ttl      time.Duration

	mu      sync.Mutex
	stamp   time.Time
	entries map[string]string
}

// defaultCacheTTL bounds entry lifetime when the caller configures none.
const defaultCacheTTL = 30 * time.Second

// NewStateCache creates a run-scoped cache over the given provider.
// A non-positive ttl falls back to 30 seconds.
func NewStateCache(provider StateProvider, ttl time.Duration) *StateCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &StateCache{
		provider: provider,
		ttl:      ttl,
		entries:  make(map[string]string),
	}
}

// Reset clears all cached entries. Called at the start of each batch run
// so one run observes one consistent snapshot.
func (c *StateCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.stamp = time.Now()
	c.mu.Unlock()
}

// Read returns the state of a source, memoised for this run.
func (c *StateCache) Read(ctx context.Context, id string, def string) string {
	return c.cached("s:"+id, func() string {
		return c.provider.Read(ctx, id, def)
	})
}

// ReadAttribute returns an attribute of a source, memoised for this run.
func (c *StateCache) ReadAttribute(ctx context.Context, id string, attribute string, def string) string {
	return c.cached("a:"+id+"#"+attribute, func() string {
		return c.provider.ReadAttribute(ctx, id, attribute, def)
	})
}

// cached returns the memoised value for key, fetching it once per run.
func (c *StateCache) cached(key string, fetch func() string) string {
	c.mu.Lock()
	if time.Since(c.stamp) > c.ttl {
		c.entries = make(map[string]string)
		c.stamp = time.Now()
	}
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	// Fetch outside the lock; a duplicate fetch under contention is
	// cheaper than serialising all provider reads.
	v := fetch()

	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
	return v
}

// unavailableStates are provider values meaning "no usable reading".
var unavailableStates = map[string]struct{}{
	"":            {},
	"unknown":     {},
	"unavailable": {},
	"none":        {},
}

// parseFloat converts a provider reading to a float64, falling back to
// def for unavailable markers and unparseable values.
func parseFloat(raw string, def float64) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, unavailable := unavailableStates[s]; unavailable {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

// parseOnOff converts a provider reading to a boolean. Anything other
// than the recognised true forms reads as false.
func parseOnOff(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
