// Package circuitbreaker stops hammering the Analytics API after repeated
// failures and keeps the last good payload per request so views can still
// render something while the circuit is open.
package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrOpen is returned by Allow while the circuit is open
var ErrOpen = errors.New("circuit breaker open: analytics api unavailable")

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, no new calls allowed
	StateHalfOpen              // Probing whether the API recovered
)

// String returns the lower-case state name
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Thresholds defines when the breaker trips
type Thresholds struct {
	// Consecutive failed calls that open the circuit
	FailureThreshold int `json:"failure_threshold"`
}

// Snapshot is a cached successful payload
type Snapshot struct {
	Payload  []byte
	StoredAt time.Time
}

// CircuitBreaker counts consecutive failures across all API calls
type CircuitBreaker struct {
	thresholds Thresholds

	state    State
	lastTrip time.Time

	// Duration before a half-open trial call is allowed
	resetDelay time.Duration

	mu sync.RWMutex

	failures int

	// Successful trial calls needed in HalfOpen to close
	successCount     int
	successThreshold int

	// Last good payload per request key
	lastGood map[string]Snapshot

	onTripCallback func(reason string, failures int)
	onStateChange  func(State)

	now func() time.Time
}

// New creates a closed breaker
func New(t Thresholds) *CircuitBreaker {
	if t.FailureThreshold <= 0 {
		t.FailureThreshold = 5
	}
	return &CircuitBreaker{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       30 * time.Second,
		successThreshold: 1,
		lastGood:         make(map[string]Snapshot),
		now:              time.Now,
	}
}

// WithResetDelay sets a custom reset delay and returns the circuit breaker
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of successful trial calls needed to close the circuit
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback sets a callback invoked asynchronously when the circuit trips
func (cb *CircuitBreaker) WithTripCallback(callback func(reason string, failures int)) *CircuitBreaker {
	cb.onTripCallback = callback
	return cb
}

// WithStateCallback sets a callback run on every state transition. It runs
// under the breaker's lock and must not call back into the breaker.
func (cb *CircuitBreaker) WithStateCallback(callback func(State)) *CircuitBreaker {
	cb.onStateChange = callback
	return cb
}

// Allow reports whether a call may proceed. An open circuit whose reset delay
// has elapsed moves to half-open and lets the call through as a trial.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if cb.now().Sub(cb.lastTrip) < cb.resetDelay {
		return ErrOpen
	}
	cb.setState(StateHalfOpen)
	cb.successCount = 0
	logrus.Info("Circuit breaker half-open: retrying analytics api")
	return nil
}

// RecordSuccess resets the failure count and counts toward closing a
// half-open circuit
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.setState(StateClosed)
			cb.successCount = 0
			logrus.Info("Circuit breaker closed: analytics api recovered")
		}
	}
}

// RecordFailure counts a failed call. A failure while half-open reopens the
// circuit immediately.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	switch {
	case cb.state == StateHalfOpen:
		cb.trip(fmt.Sprintf("trial call failed: %v", err))
	case cb.state == StateClosed && cb.failures >= cb.thresholds.FailureThreshold:
		cb.trip(fmt.Sprintf("%d consecutive failures, last: %v", cb.failures, err))
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Reset forcibly resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.failures = 0
	cb.successCount = 0
	logrus.Info("Circuit breaker manually reset to closed state")
}

// Remember caches payload as the last good response for key
func (cb *CircuitBreaker) Remember(key string, payload []byte) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.lastGood[key] = Snapshot{Payload: append([]byte(nil), payload...), StoredAt: cb.now()}
}

// LastGood returns a copy of the cached payload for key
func (cb *CircuitBreaker) LastGood(key string) (Snapshot, bool) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	snap, ok := cb.lastGood[key]
	if !ok {
		return Snapshot{}, false
	}
	snap.Payload = append([]byte(nil), snap.Payload...)
	return snap, true
}

// CachedKeys returns how many request keys have a cached payload
func (cb *CircuitBreaker) CachedKeys() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return len(cb.lastGood)
}

// trip opens the circuit; callers hold the lock
func (cb *CircuitBreaker) trip(reason string) {
	cb.setState(StateOpen)
	cb.lastTrip = cb.now()
	cb.successCount = 0
	logrus.WithField("failures", cb.failures).Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTripCallback != nil {
		go cb.onTripCallback(reason, cb.failures)
	}
}

// setState records a transition; callers hold the lock
func (cb *CircuitBreaker) setState(s State) {
	changed := cb.state != s
	cb.state = s
	if changed && cb.onStateChange != nil {
		cb.onStateChange(s)
	}
}
