package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/fleetops/dt-ingest/internal/clock"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreaker wraps a logical fleet-client operation (the whole
// retry loop, not a single HTTP attempt) and opens after a run of
// consecutive failures, grounded on the teacher's
// internal/adapters/api/circuit_breaker.go.
type CircuitBreaker struct {
	maxFailures     int
	timeout         time.Duration
	clock           clock.Clock

	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	lastFailureTime time.Time
}

// NewCircuitBreaker builds a breaker that opens after maxFailures
// consecutive failures and probes again after timeout.
func NewCircuitBreaker(maxFailures int, timeout time.Duration, c clock.Clock) *CircuitBreaker {
	if c == nil {
		c = clock.New()
	}
	return &CircuitBreaker{maxFailures: maxFailures, timeout: timeout, clock: c}
}

// Call executes fn under circuit-breaker protection.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		if cb.clock.Now().Sub(cb.lastFailureTime) >= cb.timeout {
			cb.state = CircuitHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	cb.lastFailureTime = cb.clock.Now()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		return
	}
	if cb.failureCount >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failureCount = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the current consecutive-failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// Reset returns the breaker to the closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = CircuitClosed
	cb.failureCount = 0
}
