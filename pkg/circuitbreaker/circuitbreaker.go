// Package circuitbreaker stops callers from hammering a dependency that keeps
// failing. After enough consecutive failures the breaker opens and rejects
// calls outright; once the cool-down passes it lets a few trial calls
// through and closes again when they succeed.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker's position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

var (
	// ErrCircuitOpen rejects calls while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests rejects calls beyond the half-open allowance.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Counts tallies outcomes. The consecutive counters reset on every state
// change.
type Counts struct {
	Requests             int
	TotalSuccesses       int
	TotalFailures        int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
}

func (c *Counts) success() {
	c.Requests++
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.Requests++
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// settings are fixed at construction.
type settings struct {
	name          string
	openAfter     int
	closeAfter    int
	coolDown      time.Duration
	halfOpenSlots int
	onStateChange func(name string, from, to State)
	isFailure     func(error) bool
}

// Option adjusts a breaker under construction. Non-positive numbers keep the
// default.
type Option func(*settings)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.openAfter = n
		}
	}
}

// WithSuccessThreshold sets how many half-open successes close it again.
func WithSuccessThreshold(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.closeAfter = n
		}
	}
}

// WithTimeout sets how long the breaker stays open before a trial call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.coolDown = d
		}
	}
}

// WithMaxHalfOpenRequests bounds concurrent trial calls while half-open.
func WithMaxHalfOpenRequests(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.halfOpenSlots = n
		}
	}
}

// WithOnStateChange is called with the breaker's lock held; it must not call
// back into the breaker.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(s *settings) { s.onStateChange = fn }
}

// WithIsFailure filters which errors count against the dependency. Errors it
// rejects are recorded as successes.
func WithIsFailure(fn func(error) bool) Option {
	return func(s *settings) { s.isFailure = fn }
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	cfg settings

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	inFlight int // half-open trial calls running
}

// New returns a closed breaker. Defaults: open after 5 failures, close after 2
// successes, 30s cool-down, 1 half-open trial call.
func New(name string, opts ...Option) *CircuitBreaker {
	cfg := settings{
		name:          name,
		openAfter:     5,
		closeAfter:    2,
		coolDown:      30 * time.Second,
		halfOpenSlots: 1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CircuitBreaker{cfg: cfg}
}

// Execute runs fn when the breaker admits it and records the outcome. A
// rejected call returns ErrCircuitOpen or ErrTooManyRequests without running
// fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	trial, err := cb.admit(time.Now())
	if err != nil {
		return err
	}
	err = fn(ctx)
	cb.record(err, trial)
	return err
}

// admit reports whether the call is a half-open trial.
func (cb *CircuitBreaker) admit(now time.Time) (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if now.Sub(cb.openedAt) < cb.cfg.coolDown {
			return false, ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
	}
	if cb.state == StateHalfOpen {
		if cb.inFlight >= cb.cfg.halfOpenSlots {
			return false, ErrTooManyRequests
		}
		cb.inFlight++
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) record(err error, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial && cb.state == StateHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}

	failed := err != nil
	if failed && cb.cfg.isFailure != nil {
		failed = cb.cfg.isFailure(err)
	}

	if !failed {
		cb.counts.success()
		if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.cfg.closeAfter {
			cb.transition(StateClosed)
		}
		return
	}

	cb.counts.failure()
	switch {
	case cb.state == StateHalfOpen:
		cb.trip()
	case cb.state == StateClosed && cb.counts.ConsecutiveFailures >= cb.cfg.openAfter:
		cb.trip()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = time.Now()
	cb.transition(StateOpen)
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.counts.ConsecutiveSuccesses = 0
	cb.counts.ConsecutiveFailures = 0
	cb.inFlight = 0
	if cb.cfg.onStateChange != nil {
		cb.cfg.onStateChange(cb.cfg.name, from, to)
	}
}

// State returns the current position without advancing an expired cool-down.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a snapshot of the tallies.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the breaker and clears its tallies without notifying.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.counts = Counts{}
	cb.inFlight = 0
	cb.openedAt = time.Time{}
}

// DiscordAPIBreaker is the REST client's default breaker. isFailure lets the
// client ignore 4xx responses, which say nothing about API health.
func DiscordAPIBreaker(onStateChange func(name string, from, to State), isFailure func(error) bool) *CircuitBreaker {
	return New("discord-api",
		WithFailureThreshold(5),
		WithSuccessThreshold(2),
		WithTimeout(30*time.Second),
		WithMaxHalfOpenRequests(1),
		WithOnStateChange(onStateChange),
		WithIsFailure(isFailure),
	)
}
