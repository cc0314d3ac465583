package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// Retry defaults.
const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = time.Second
	DefaultRateLimitWait = 60 * time.Second
)

// Retrier re-runs failed operations on a pure exponential schedule:
// base, 2*base, 4*base, ... with no jitter. Only errors classified by
// model.IsRecoverable are retried.
type Retrier struct {
	maxAttempts   int
	baseDelay     time.Duration
	rateLimitWait time.Duration
	newTimer      func() backoff.Timer
	logger        zerolog.Logger
}

// RetryOption configures a Retrier.
type RetryOption func(*Retrier)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay before the second attempt.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(r *Retrier) { r.baseDelay = d }
}

// WithRateLimitWait sets the fixed wait used by WaitRateLimit.
func WithRateLimitWait(d time.Duration) RetryOption {
	return func(r *Retrier) { r.rateLimitWait = d }
}

// WithTimer replaces the wall-clock timer, letting tests observe delays
// without sleeping.
func WithTimer(newTimer func() backoff.Timer) RetryOption {
	return func(r *Retrier) { r.newTimer = newTimer }
}

// WithRetryLogger sets the logger.
func WithRetryLogger(logger zerolog.Logger) RetryOption {
	return func(r *Retrier) { r.logger = logger }
}

// NewRetrier creates a Retrier with the package defaults.
func NewRetrier(opts ...RetryOption) *Retrier {
	r := &Retrier{
		maxAttempts:   DefaultMaxAttempts,
		baseDelay:     DefaultBaseDelay,
		rateLimitWait: DefaultRateLimitWait,
		newTimer:      func() backoff.Timer { return &wallTimer{} },
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) schedule(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.baseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.maxAttempts-1)), ctx)
}

// Retry runs op until it succeeds, fails with a non-recoverable error, or
// the attempts run out. Non-recoverable errors are returned unchanged.
// Exhaustion returns a model.KindFinal error wrapping the last failure.
// A nil Retrier runs op exactly once.
func Retry[T any](ctx context.Context, r *Retrier, op func(context.Context) (T, error)) (T, error) {
	if r == nil {
		return op(ctx)
	}

	attempt := 0
	permanent := false
	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && !model.IsRecoverable(err) {
			permanent = true
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, next time.Duration) {
		r.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", next).Msg("recoverable failure, retrying")
	}

	v, err := backoff.RetryNotifyWithTimerAndData(operation, r.schedule(ctx), notify, r.newTimer())
	switch {
	case err == nil, permanent:
		return v, err
	case ctx.Err() != nil:
		return v, ctx.Err()
	default:
		return v, &model.Error{
			Kind:    model.KindFinal,
			Op:      "retry",
			Message: fmt.Sprintf("gave up after %d attempts", attempt),
			Err:     err,
		}
	}
}

// Do is Retry for operations without a result.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := Retry(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// WaitRateLimit blocks for the fixed rate-limit window or until ctx is done.
func (r *Retrier) WaitRateLimit(ctx context.Context) error {
	t := r.newTimer()
	t.Start(r.rateLimitWait)
	defer t.Stop()

	r.logger.Info().Dur("wait", r.rateLimitWait).Msg("rate limited, waiting")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

// wallTimer implements backoff.Timer with time.Timer.
type wallTimer struct {
	timer *time.Timer
}

func (t *wallTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *wallTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *wallTimer) C() <-chan time.Time {
	return t.timer.C
}
