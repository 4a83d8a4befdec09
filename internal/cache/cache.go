// Package cache holds the current NAS state shared by the ingest and render
// paths.
package cache

import (
	"sync"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
)

// Cache is a thread-safe holder for the single NAS state snapshot.
// Writers replace the whole snapshot; readers get a copy.
type Cache struct {
	mu sync.RWMutex

	state    model.NasState
	applied  uint64
	rejected uint64
}

// Stats summarises ingest activity for health reporting.
type Stats struct {
	Applied    uint64    `json:"applied"`
	Rejected   uint64    `json:"rejected"`
	LastUpdate time.Time `json:"last_update"`
	Valid      bool      `json:"valid"`
}

// New returns an empty cache holding the invalid zero state.
func New() *Cache {
	return &Cache{}
}

// Apply replaces the snapshot. Invalid states are ignored so that a populated
// cache never goes back to "no data".
func (c *Cache) Apply(s model.NasState) bool {
	if !s.Valid {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.applied++
	return true
}

// Current returns a copy of the latest snapshot.
func (c *Cache) Current() model.NasState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsStale reports whether there is no data or the data is older than maxAge.
func (c *Cache) IsStale(now time.Time, maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.state.Valid {
		return true
	}
	return now.Sub(c.state.LastUpdate) > maxAge
}

// RecordRejected counts a message that failed to decode.
func (c *Cache) RecordRejected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected++
}

// Stats returns the ingest counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Applied:    c.applied,
		Rejected:   c.rejected,
		LastUpdate: c.state.LastUpdate,
		Valid:      c.state.Valid,
	}
}
