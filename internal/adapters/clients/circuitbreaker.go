package clients

import (
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed is the normal operating state. Requests are allowed through.
	StateClosed State = iota

	// StateOpen blocks requests until the cooldown has passed.
	StateOpen

	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Circuit breaker defaults applied to zero config values.
const (
	defaultCircuitMaxFailures   = 5
	defaultCircuitTimeout       = 30 * time.Second
	defaultCircuitHalfOpenLimit = 1
)

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed and the
	// number of consecutive probe successes needed to close the circuit.
	HalfOpenLimit int
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = defaultCircuitMaxFailures
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultCircuitTimeout
	}

	if c.HalfOpenLimit <= 0 {
		c.HalfOpenLimit = defaultCircuitHalfOpenLimit
	}

	return c
}

// CircuitBreaker stops calls to a downstream that keeps failing, so a dead
// sink fails fast and the caller moves on to the next one.
//
// State transitions:
//   - Closed → Open: After MaxFailures consecutive failures
//   - Open → HalfOpen: After Timeout has passed
//   - HalfOpen → Closed: After HalfOpenLimit consecutive successes
//   - HalfOpen → Open: On any failure
type CircuitBreaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	probes      int
	openedAt    time.Time
	cfg         CircuitBreakerConfig
	onChange    func(from, to State)
	now         func() time.Time
	transitions []transition
}

type transition struct{ from, to State }

// NewCircuitBreaker creates a new circuit breaker; zero config fields take defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		state: StateClosed,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
	}
}

// OnStateChange sets a callback invoked after every state change.
// The callback runs on the calling goroutine without the breaker's lock held.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onChange = fn
}

// Allow reports whether a request may proceed.
// An open circuit whose cooldown has passed moves to half-open and admits a probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	allowed := false

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			cb.transitionTo(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	cb.unlockAndNotify()

	return allowed
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenLimit {
			cb.transitionTo(StateClosed)
		}
	}

	cb.unlockAndNotify()
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		cb.transitionTo(StateOpen)
	}

	cb.unlockAndNotify()
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// transitionTo changes state and queues the callback. Must be called with lock held.
func (cb *CircuitBreaker) transitionTo(next State) {
	if cb.state == next {
		return
	}

	cb.transitions = append(cb.transitions, transition{from: cb.state, to: next})
	cb.state = next
	cb.failures = 0
	cb.successes = 0

	if next == StateOpen {
		cb.openedAt = cb.now()
		cb.probes = 0
	}
}

// unlockAndNotify releases the lock, then delivers queued transitions.
func (cb *CircuitBreaker) unlockAndNotify() {
	pending := cb.transitions
	cb.transitions = nil
	fn := cb.onChange
	cb.mu.Unlock()

	if fn == nil {
		return
	}

	for _, t := range pending {
		fn(t.from, t.to)
	}
}
