// Package cache keeps analyzed query graphs in memory so views can be
// recomputed without re-running extraction.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/metrics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/view"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entry is one cached query. Everything but the last served limits is
// immutable after insertion and can be read without locking.
type Entry struct {
	ID        string
	Graph     common.Graph
	Insights  common.Insights
	Skipped   []common.SkippedSource
	CreatedAt time.Time

	seq        uint64
	lastLimits atomic.Pointer[view.Limits]
}

// LastLimits returns the limits of the most recent view served for the
// entry, if any.
func (e *Entry) LastLimits() (view.Limits, bool) {
	l := e.lastLimits.Load()
	if l == nil {
		return view.Limits{}, false
	}
	return *l, true
}

func (e *Entry) RememberLimits(l view.Limits) {
	e.lastLimits.Store(&l)
}

type Options struct {
	MaxEntries    int           `yaml:"max_entries"`
	MaxAge        time.Duration `yaml:"max_age"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

func DefaultOptions() Options {
	return Options{
		MaxEntries:    64,
		MaxAge:        2 * time.Hour,
		SweepInterval: time.Minute,
	}
}

// Cache is a bounded map of query id to Entry. Insert and Sweep are the
// only mutators; both hold the write lock for the whole operation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	seq     uint64

	opts    Options
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() (string, error)
}

type NewCacheParams struct {
	Options Options
	Metrics *metrics.Metrics

	// Now and NewID default to time.Now and gonanoid.New.
	Now   func() time.Time
	NewID func() (string, error)
}

func New(params NewCacheParams) *Cache {
	c := &Cache{
		entries: make(map[string]*Entry),
		opts:    params.Options,
		metrics: params.Metrics,
		now:     params.Now,
		newID:   params.NewID,
	}
	if c.opts.MaxEntries <= 0 {
		c.opts.MaxEntries = DefaultOptions().MaxEntries
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = func() (string, error) { return gonanoid.New() }
	}
	return c
}

// Insert stores a freshly analyzed graph under a new id, evicting expired
// entries first and then the oldest ones until there is room.
func (c *Cache) Insert(g common.Graph, insights common.Insights, skipped []common.SkippedSource) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var id string
	for attempt := 0; ; attempt++ {
		candidate, err := c.newID()
		if err != nil {
			return nil, fmt.Errorf("cache: generate id: %w", err)
		}
		if _, taken := c.entries[candidate]; !taken {
			id = candidate
			break
		}
		if attempt == 8 {
			return nil, fmt.Errorf("cache: could not generate a free id")
		}
	}

	now := c.now()
	expired := c.evictExpiredLocked(now)
	full := 0
	for len(c.entries) >= c.opts.MaxEntries {
		c.evictOldestLocked()
		full++
	}
	c.metrics.CacheEvicted("age", expired)
	c.metrics.CacheEvicted("capacity", full)

	c.seq++
	e := &Entry{
		ID:        id,
		Graph:     g,
		Insights:  insights,
		Skipped:   skipped,
		CreatedAt: now,
		seq:       c.seq,
	}
	c.entries[id] = e
	c.metrics.CacheSize(len(c.entries))
	logger.Debug("[Cache] Inserted query", "id", id, "nodes", len(g.Nodes), "entries", len(c.entries), "evicted", expired+full)
	return e, nil
}

// Get returns the entry for id. Unknown, evicted and expired ids all
// yield ErrQueryNotFound.
func (c *Cache) Get(id string) (*Entry, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || c.expired(e, c.now()) {
		return nil, fmt.Errorf("%w: %s", common.ErrQueryNotFound, id)
	}
	return e, nil
}

// Sweep drops expired entries and reports how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.evictExpiredLocked(c.now())
	c.metrics.CacheEvicted("age", n)
	c.metrics.CacheSize(len(c.entries))
	if n > 0 {
		logger.Info("[Cache] Swept expired queries", "evicted", n, "entries", len(c.entries))
	}
	return n
}

// Run sweeps at the configured interval until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	if c.opts.MaxAge <= 0 || c.opts.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(e *Entry, now time.Time) bool {
	return c.opts.MaxAge > 0 && now.Sub(e.CreatedAt) > c.opts.MaxAge
}

func (c *Cache) evictExpiredLocked(now time.Time) int {
	n := 0
	for id, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

func (c *Cache) evictOldestLocked() {
	var oldest *Entry
	for _, e := range c.entries {
		if oldest == nil || e.seq < oldest.seq {
			oldest = e
		}
	}
	if oldest != nil {
		delete(c.entries, oldest.ID)
		logger.Debug("[Cache] Evicted oldest query", "id", oldest.ID)
	}
}
