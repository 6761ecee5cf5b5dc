package ocr

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrEngineUnavailable is returned while the breaker is open after repeated
// engine failures.
var ErrEngineUnavailable = errors.New("el motor OCR no está disponible temporalmente")

// BreakerState is the state of the engine breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker fails fast once the engine has failed maxFailures times in a row.
// After cooldown a single trial call is let through; its outcome closes or
// reopens the breaker.
type Breaker struct {
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	openedAt    time.Time
	trialActive bool
}

// NewBreaker creates a breaker. Non-positive arguments fall back to five
// failures and thirty seconds.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{maxFailures: maxFailures, cooldown: cooldown, now: time.Now}
}

// Execute runs fn unless the breaker is open. Cancellation by the caller is
// not counted as an engine failure.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrEngineUnavailable
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	halfOpen := b.state == BreakerHalfOpen
	b.trialActive = false

	switch {
	case err == nil:
		b.state = BreakerClosed
		b.failures = 0
	case errors.Is(err, context.Canceled):
		// keep the current state; a half-open trial may be retried
	default:
		b.failures++
		if halfOpen || b.failures >= b.maxFailures {
			b.state = BreakerOpen
			b.openedAt = b.now()
		}
	}
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = BreakerHalfOpen
		b.trialActive = true
		return true
	case BreakerHalfOpen:
		if b.trialActive {
			return false
		}
		b.trialActive = true
		return true
	default:
		return true
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.trialActive = false
}
