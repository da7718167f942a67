// Package circuitbreaker protects calls to the risk and report upstreams
// with a per-upstream circuit: closed → open → half-open.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// State represents the circuit state.
type State int

const (
	StateClosed   State = iota // requests flow through
	StateOpen                  // tripped: requests are rejected
	StateHalfOpen              // one probe allowed to test recovery
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "riskcore",
	Subsystem: "circuitbreaker",
	Name:      "state_transitions_total",
	Help:      "Circuit breaker state transitions by upstream, from-state, and to-state.",
}, []string{"upstream", "from_state", "to_state"})

func init() {
	prometheus.MustRegister(stateTransitions)
}

// circuit tracks one upstream's state.
type circuit struct {
	state       State
	failures    int
	lastFailure time.Time
}

// Breaker is a per-upstream circuit breaker. It trips open after threshold
// consecutive failures; after openDuration one probe is let through.
type Breaker struct {
	mu           sync.Mutex
	upstreams    map[string]*circuit
	threshold    int
	openDuration time.Duration
}

// New creates a breaker that opens after threshold consecutive failures
// and stays open for openDuration before probing.
func New(threshold int, openDuration time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openDuration <= 0 {
		openDuration = 30 * time.Second
	}
	return &Breaker{
		upstreams:    make(map[string]*circuit),
		threshold:    threshold,
		openDuration: openDuration,
	}
}

// Allow reports whether a request to the upstream should proceed. An open
// circuit past openDuration moves to half-open and admits one probe.
func (b *Breaker) Allow(upstream string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.upstreams[upstream]
	if !ok {
		return true
	}

	switch c.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(c.lastFailure) >= b.openDuration {
			b.transition(c, upstream, StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		// A probe is already out; reject until it resolves.
		return false
	default:
		return true
	}
}

// RecordSuccess resets the failure count and closes a half-open circuit.
func (b *Breaker) RecordSuccess(upstream string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.upstreams[upstream]
	if !ok {
		return
	}
	if c.state == StateHalfOpen {
		b.transition(c, upstream, StateClosed)
	}
	c.failures = 0
}

// RecordFailure counts a failure and trips the circuit open when the
// threshold is reached. A failed probe reopens immediately.
func (b *Breaker) RecordFailure(upstream string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.upstreams[upstream]
	if !ok {
		c = &circuit{state: StateClosed}
		b.upstreams[upstream] = c
	}

	c.failures++
	c.lastFailure = time.Now()

	if c.state == StateHalfOpen {
		b.transition(c, upstream, StateOpen)
		return
	}
	if c.state == StateClosed && c.failures >= b.threshold {
		b.transition(c, upstream, StateOpen)
	}
}

// State returns the current state for an upstream. Unknown upstreams are closed.
func (b *Breaker) State(upstream string) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.upstreams[upstream]
	if !ok {
		return StateClosed
	}
	return c.state
}

// transition changes state and records the metric. Caller holds b.mu.
func (b *Breaker) transition(c *circuit, upstream string, to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	stateTransitions.WithLabelValues(upstream, from.String(), to.String()).Inc()
}
