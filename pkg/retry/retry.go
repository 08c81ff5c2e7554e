// Package retry re-runs operations that fail transiently.
//
// Callers decide what is transient by marking errors: Retryable errors are
// tried again after an exponential, jittered wait; Permanent errors end the
// loop at once. Unmarked errors are returned unless a RetryIf predicate
// claims them. An error in the chain that reports RetryDelay stretches the
// next wait to at least that long, which is how 429 responses pace the REST
// client.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MARKING
// ══════════════════════════════════════════════════════════════════════════════

type verdict uint8

const (
	verdictNone verdict = iota
	verdictRetry
	verdictStop
)

// markedError carries the caller's verdict alongside the failure.
type markedError struct {
	err     error
	verdict verdict
}

func (m *markedError) Error() string { return m.err.Error() }
func (m *markedError) Unwrap() error { return m.err }

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, verdict: verdictRetry}
}

// Permanent marks err as final. The retrier returns the inner error as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, verdict: verdictStop}
}

// unmark reports the verdict found in err's chain. A mark at the top of the
// chain is stripped from the returned error.
func unmark(err error) (verdict, error) {
	var m *markedError
	if !errors.As(err, &m) {
		return verdictNone, err
	}
	if err == error(m) {
		return m.verdict, m.err
	}
	return m.verdict, err
}

// delayer is implemented by errors that know the earliest useful retry time.
type delayer interface {
	RetryDelay() time.Duration
}

// ══════════════════════════════════════════════════════════════════════════════
// POLICY
// ══════════════════════════════════════════════════════════════════════════════

// Policy controls how often and how far apart attempts are made.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Factor    float64
	// Jitter spreads each wait by up to this fraction in either direction.
	Jitter float64

	// RetryIf decides for errors that carry no mark.
	RetryIf func(error) bool
	// OnRetry runs before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func defaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  10 * time.Second,
		Factor:    2,
		Jitter:    0.1,
	}
}

// Option adjusts a Policy. Non-positive values keep the default.
type Option func(*Policy)

func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.Attempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.BaseDelay = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.MaxDelay = d
		}
	}
}

func WithMultiplier(f float64) Option {
	return func(p *Policy) {
		if f >= 1 {
			p.Factor = f
		}
	}
}

// WithJitter accepts a fraction in [0, 1].
func WithJitter(f float64) Option {
	return func(p *Policy) {
		if f >= 0 && f <= 1 {
			p.Jitter = f
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(p *Policy) { p.RetryIf = fn }
}

func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(p *Policy) { p.OnRetry = fn }
}

// ══════════════════════════════════════════════════════════════════════════════
// RETRIER
// ══════════════════════════════════════════════════════════════════════════════

// Retrier runs operations under a fixed Policy. It is safe for concurrent use.
type Retrier struct {
	policy Policy
}

// New builds a Retrier from the default policy and opts.
func New(opts ...Option) *Retrier {
	p := defaultPolicy()
	for _, opt := range opts {
		opt(&p)
	}
	return &Retrier{policy: p}
}

// Do calls op until it succeeds, returns a final error or the attempts run
// out.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := DoWithData(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoWithData is Do for operations that produce a value.
func DoWithData[T any](ctx context.Context, r *Retrier, op func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		again, cause := r.decide(err)
		if !again || attempt >= r.policy.Attempts {
			return zero, cause
		}

		wait := r.backoff(attempt, err)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, cause, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Retrier) decide(err error) (bool, error) {
	v, cause := unmark(err)
	switch v {
	case verdictRetry:
		return true, cause
	case verdictStop:
		return false, cause
	}
	if r.policy.RetryIf != nil {
		return r.policy.RetryIf(err), err
	}
	return false, err
}

// backoff is the wait after the given failed attempt. A delay hint in err
// overrides a shorter computed wait, and is not capped by MaxDelay.
func (r *Retrier) backoff(attempt int, err error) time.Duration {
	d := float64(r.policy.BaseDelay) * math.Pow(r.policy.Factor, float64(attempt-1))
	if limit := float64(r.policy.MaxDelay); limit > 0 && d > limit {
		d = limit
	}
	if r.policy.Jitter > 0 {
		d += d * r.policy.Jitter * (2*rand.Float64() - 1)
	}
	wait := time.Duration(d)

	var hint delayer
	if err != nil && errors.As(err, &hint) {
		if after := hint.RetryDelay(); after > wait {
			wait = after
		}
	}
	return wait
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// DiscordAPIRetrier is the REST client's default: three attempts starting at
// half a second.
func DiscordAPIRetrier(onRetry func(attempt int, err error, wait time.Duration)) *Retrier {
	return New(
		WithMaxAttempts(3),
		WithInitialDelay(500*time.Millisecond),
		WithMaxDelay(10*time.Second),
		WithMultiplier(2),
		WithJitter(0.2),
		WithOnRetry(onRetry),
	)
}

// DatabaseRetrier is used while connecting to the entity store. opts are
// applied after the preset.
func DatabaseRetrier(opts ...Option) *Retrier {
	base := []Option{
		WithMaxAttempts(3),
		WithInitialDelay(200 * time.Millisecond),
		WithMaxDelay(2 * time.Second),
		WithMultiplier(2),
		WithJitter(0.1),
	}
	return New(append(base, opts...)...)
}
