// Package backoff provides pluggable delay strategies for the dispatch
// loop's reaction to store errors. All strategies are safe for concurrent
// use (they are stateless).
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before attempt n.
type Strategy interface {
	// Delay returns how long to wait before attempt n (1-indexed).
	// Attempt 1 is the first re-try after the initial failure.
	Delay(attempt int) time.Duration
}

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// ExponentialWithJitter applies full jitter to an exponential base.
// Delay = random value in [0, min(Initial * 2^(attempt-1), Max)].
// This prevents thundering herd when many loops back off simultaneously.
type ExponentialWithJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponentialWithJitter creates an exponential backoff with full jitter.
func NewExponentialWithJitter(initial, maxDelay time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Initial: initial, Max: maxDelay}
}

// Delay returns a random duration in [0, min(Initial * 2^(attempt-1), Max)].
func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	base := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && base > float64(e.Max) {
		base = float64(e.Max)
	}
	return time.Duration(rand.Float64() * base) //nolint:gosec // jitter intentionally uses non-crypto rand
}

// DefaultStrategy returns the backoff the pool uses after a dequeue
// error: a flat 5 seconds.
func DefaultStrategy() Strategy {
	return NewConstant(5 * time.Second)
}
