// Package health runs named subsystem probes for the liveness endpoint.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// probeTimeout caps how long a single probe may take. A wedged storage
// backend should degrade the health report, not hang it.
const probeTimeout = 2 * time.Second

// Status is the result of one subsystem probe.
type Status struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Detail    string `json:"detail,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
}

// Checker probes one subsystem.
type Checker func(ctx context.Context) Status

// Registry holds named probes and runs them on demand.
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Checker
}

// NewRegistry creates an empty probe registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[string]Checker)}
}

// Register adds a named probe, replacing any previous probe of that name.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.probes[name] = check
	r.mu.Unlock()
}

// CheckAll runs every probe with a per-probe timeout and returns the
// aggregate health plus individual results, ordered by probe name.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	probes := make([]Checker, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		probes = append(probes, r.probes[name])
	}
	r.mu.RUnlock()

	healthy := true
	statuses := make([]Status, len(probes))

	for i, probe := range probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		start := time.Now()
		statuses[i] = probe(pctx)
		statuses[i].LatencyMS = time.Since(start).Milliseconds()
		cancel()
		if statuses[i].Name == "" {
			statuses[i].Name = names[i]
		}
		if !statuses[i].Healthy {
			healthy = false
		}
	}

	return healthy, statuses
}
