// Package breaker provides per-endpoint circuit breaking (C1) so a single
// degraded bibliographic API cannot cascade into every agent that calls it.
//
// Built on github.com/sony/gobreaker: each endpoint key gets its own
// gobreaker.CircuitBreaker, registered lazily and shared across all agents
// for the lifetime of the process (shared circuit state is a requirement of
// the resilience model, not an implementation detail — see §5 of the spec).
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// State mirrors gobreaker's three states under the names the spec uses.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Snapshot is the observable contract exposed for audit-log inclusion on
// every invocation (§4.1).
type Snapshot struct {
	Endpoint            string
	State               State
	ConsecutiveFailures uint32
	OpenedAt            time.Time
	LastError           string
}

// ErrCircuitOpen is returned when a call is rejected because the breaker for
// its endpoint is open. Callers should surface this as ToolError{Kind: CircuitOpen}
// without retrying in the same turn.
var ErrCircuitOpen = errors.New("circuit open")

// Config tunes a single endpoint's breaker. Zero value uses the spec defaults.
type Config struct {
	FailMax      uint32        // default 5
	ResetTimeout time.Duration // default 60s
}

func (c Config) withDefaults() Config {
	if c.FailMax == 0 {
		c.FailMax = 5
	}
	if c.ResetTimeout == 0 {
		c.ResetTimeout = 60 * time.Second
	}
	return c
}

// Registry holds one breaker per endpoint key, created on first use.
// Safe for concurrent use by every agent in the process.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*endpointBreaker
	configs  map[string]Config // per-endpoint overrides, set via Configure
}

type endpointBreaker struct {
	cb        *gobreaker.CircuitBreaker[any]
	mu        sync.Mutex
	openedAt  time.Time
	lastError string
}

// NewRegistry creates an empty breaker registry.
func NewRegistry() *Registry {
	return &Registry{
		breakers: make(map[string]*endpointBreaker),
		configs:  make(map[string]Config),
	}
}

// Configure sets the fail_max/reset_timeout for an endpoint before first use.
// Calling it after the breaker has been created for that endpoint is a no-op
// for already-open-state timers but updates thresholds going forward.
func (r *Registry) Configure(endpoint string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[endpoint] = cfg.withDefaults()
}

func (r *Registry) get(endpoint string) *endpointBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if eb, ok := r.breakers[endpoint]; ok {
		return eb
	}

	cfg := r.configs[endpoint]
	cfg = cfg.withDefaults()

	eb := &endpointBreaker{}
	settings := gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1, // one probing call admitted at a time in half-open
		Interval:    0, // never reset counts while closed; consecutive failures only
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailMax
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			eb.mu.Lock()
			defer eb.mu.Unlock()
			if to == gobreaker.StateOpen {
				eb.openedAt = time.Now()
			}
		},
	}
	eb.cb = gobreaker.NewCircuitBreaker[any](settings)
	r.breakers[endpoint] = eb
	return eb
}

// Classify tells the breaker whether an error returned by an adapter call
// should count as a tripping failure. Permanent client errors (anything but
// 429) must not trip the breaker — callers pass the already-classified bool.
type Classification int

const (
	ClassifyPermanent Classification = iota // 4xx other than 429 — never trips the breaker
	ClassifyTransient                       // timeout, connection error, 5xx, 429 — may trip
	ClassifyCancelled                       // context cancellation — never counts
)

// Call executes fn through the endpoint's breaker. classify inspects the
// error fn returns (nil included) and decides whether it counts toward
// tripping; fn's own return value and error are passed through unchanged
// except ErrCircuitOpen, which replaces fn's error when the breaker refuses
// the call outright.
func Call[T any](ctx context.Context, r *Registry, endpoint string, classify func(error) Classification, fn func(context.Context) (T, error)) (T, error) {
	eb := r.get(endpoint)

	var zero T
	result, err := eb.cb.Execute(func() (any, error) {
		v, callErr := fn(ctx)
		switch classify(callErr) {
		case ClassifyTransient:
			if callErr == nil {
				callErr = errors.New("transient")
			}
			eb.mu.Lock()
			eb.lastError = callErr.Error()
			eb.mu.Unlock()
			return v, callErr
		case ClassifyCancelled:
			// Returning a sentinel the gobreaker treats as success keeps
			// cancellations from counting toward ConsecutiveFailures, per §4.1.
			return v, nil
		default: // ClassifyPermanent, or callErr == nil
			return v, nil
		}
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrCircuitOpen
		}
		if v, ok := result.(T); ok {
			return v, err
		}
		return zero, err
	}
	if v, ok := result.(T); ok {
		return v, nil
	}
	return zero, nil
}

// Snapshot returns the observable breaker state for audit inclusion.
func (r *Registry) Snapshot(endpoint string) Snapshot {
	eb := r.get(endpoint)
	counts := eb.cb.Counts()
	eb.mu.Lock()
	defer eb.mu.Unlock()

	var state State
	switch eb.cb.State() {
	case gobreaker.StateClosed:
		state = StateClosed
	case gobreaker.StateOpen:
		state = StateOpen
	case gobreaker.StateHalfOpen:
		state = StateHalfOpen
	}

	return Snapshot{
		Endpoint:            endpoint,
		State:               state,
		ConsecutiveFailures: counts.ConsecutiveFailures,
		OpenedAt:            eb.openedAt,
		LastError:           eb.lastError,
	}
}
