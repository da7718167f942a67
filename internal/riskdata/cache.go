package riskdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lendiq/riskcore/internal/logging"
	"github.com/lendiq/riskcore/internal/metrics"
)

// DefaultTTL is how long a cached risk map stays valid.
const DefaultTTL = 5 * time.Minute

// cached is the single cache slot.
type cached struct {
	data      *RiskData
	typ       MapType
	fetchedAt time.Time
}

// flight is one in-flight upstream fetch. Waiters block on done; data and
// err are set exactly once before done is closed.
type flight struct {
	typ    MapType
	cancel context.CancelFunc
	done   chan struct{}
	data   *RiskData
	err    error
}

// Cache is a single-slot, coalescing cache over a Source.
//
// Only the most recently fetched map type is cached; requesting a new
// type evicts the previous entry on the next successful fetch and
// cancels any fetch still in flight for the old type.
type Cache struct {
	source Source
	ttl    time.Duration

	mu    sync.Mutex
	slot  *cached
	fl    *flight
}

// NewCache creates a cache over source with the default TTL.
func NewCache(source Source) *Cache {
	return &Cache{source: source, ttl: DefaultTTL}
}

// WithTTL overrides the cache TTL.
func (c *Cache) WithTTL(ttl time.Duration) *Cache {
	c.ttl = ttl
	return c
}

// Fetch returns risk data for typ, serving from cache when the slot
// matches and is within TTL. Concurrent calls for the same type share a
// single upstream fetch; a call for a different type cancels the stale
// in-flight fetch, whose waiters receive ErrAborted.
//
// force bypasses the cache (and any in-flight result) and issues a fresh
// upstream fetch.
func (c *Cache) Fetch(ctx context.Context, typ MapType, force bool) (*RiskData, error) {
	if _, err := ParseMapType(string(typ)); err != nil {
		return nil, err
	}

	c.mu.Lock()

	// A fetch for another type is stale the moment a new type is
	// requested: abort it so its late response cannot land.
	if c.fl != nil && c.fl.typ != typ {
		c.fl.cancel()
		c.fl = nil
	}

	if !force && c.slot != nil && c.slot.typ == typ && time.Since(c.slot.fetchedAt) < c.ttl {
		data := c.slot.data
		c.mu.Unlock()
		metrics.RiskDataFetchesTotal.WithLabelValues("hit").Inc()
		return data, nil
	}

	if !force && c.fl != nil {
		fl := c.fl
		c.mu.Unlock()
		metrics.RiskDataFetchesTotal.WithLabelValues("coalesced").Inc()
		return c.wait(ctx, fl)
	}

	if force && c.fl != nil {
		// A forced reload supersedes whatever is in flight.
		c.fl.cancel()
	}

	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	fl := &flight{typ: typ, cancel: cancel, done: make(chan struct{})}
	c.fl = fl
	c.mu.Unlock()

	metrics.RiskDataFetchesTotal.WithLabelValues("miss").Inc()
	go c.run(fctx, fl)
	return c.wait(ctx, fl)
}

// Clear wipes the cache slot and aborts any in-flight fetch.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = nil
	if c.fl != nil {
		c.fl.cancel()
		c.fl = nil
	}
}

// Cached returns the current slot contents without fetching, or nil when
// the slot is empty or expired.
func (c *Cache) Cached(typ MapType) *RiskData {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slot != nil && c.slot.typ == typ && time.Since(c.slot.fetchedAt) < c.ttl {
		return c.slot.data
	}
	return nil
}

// wait blocks until the flight resolves or the caller's ctx is done.
func (c *Cache) wait(ctx context.Context, fl *flight) (*RiskData, error) {
	select {
	case <-fl.done:
		return fl.data, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run performs the upstream fetch and publishes the result. Cancellation
// is checked at completion: an aborted flight resolves to ErrAborted and
// never populates the slot.
func (c *Cache) run(ctx context.Context, fl *flight) {
	start := time.Now()
	data, err := c.source.Fetch(ctx, fl.typ)
	metrics.RiskDataFetchDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		fl.err = ErrAborted
		metrics.RiskDataFetchesTotal.WithLabelValues("aborted").Inc()
		logging.L(ctx).Debug("risk data fetch aborted", "type", fl.typ)
	} else if err != nil {
		// Upstream failure: surfaced unchanged, nothing cached.
		fl.err = fmt.Errorf("fetch risk data for %s: %w", fl.typ, err)
		metrics.RiskDataFetchesTotal.WithLabelValues("error").Inc()
	} else {
		fl.data = data
		c.slot = &cached{data: data, typ: fl.typ, fetchedAt: time.Now()}
	}

	if c.fl == fl {
		c.fl = nil
	}
	close(fl.done)
}
