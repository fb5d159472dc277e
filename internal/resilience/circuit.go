package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a call is rejected because the oracle
// breaker is open. Pipelines treat this as oracle unavailability and take
// their fallback paths.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	// BreakerClosed lets calls through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls immediately.
	BreakerOpen
	// BreakerHalfOpen lets a single probe through to test recovery.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker is a three-state circuit breaker guarding the oracle. After
// FailureThreshold consecutive retryable failures it opens for ResetTimeout,
// then allows one probe; a successful probe closes it, a failed probe reopens
// it. Malformed-response errors do not trip the breaker; the service answered,
// just badly.
type Breaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	nowFunc     func() time.Time
}

// NewBreaker creates a breaker. Non-positive arguments fall back to
// 5 failures / 30s reset.
func NewBreaker(failureThreshold int, resetTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            BreakerClosed,
		nowFunc:          time.Now,
	}
}

// Allow reports whether a call may proceed, transitioning open→half-open
// after the reset timeout. Returns ErrCircuitOpen when calls are rejected.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.nowFunc().Sub(b.lastFailure) < b.resetTimeout {
			return ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
	}
	return nil
}

// Record feeds a call outcome into the breaker. Only errors for which trip is
// true count as failures; nil trip counts every non-nil error.
func (b *Breaker) Record(err error, trip func(error) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil
	if failed && trip != nil {
		failed = trip(err)
	}

	if !failed {
		b.state = BreakerClosed
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailure = b.nowFunc()
	if b.state == BreakerHalfOpen || b.failures >= b.failureThreshold {
		b.state = BreakerOpen
	}
}

// State returns the current state, accounting for reset-timeout expiry.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.nowFunc().Sub(b.lastFailure) >= b.resetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
}
