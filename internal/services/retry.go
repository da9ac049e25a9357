package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ArowuTest/jackpot-backend/internal/config"
)

// RetryPolicy bounds a retried operation: exponential backoff capped at MaxBackoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func RetryPolicyFromConfig(cfg config.SettlementConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
}

// backOff builds the schedule for one retried call. Attempts, not elapsed time, end it.
func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	opts := []backoff.ExponentialBackOffOpts{
		backoff.WithMaxElapsedTime(0),
		backoff.WithRandomizationFactor(0.2),
	}
	if p.InitialBackoff > 0 {
		opts = append(opts, backoff.WithInitialInterval(p.InitialBackoff))
	}
	if p.MaxBackoff > 0 {
		opts = append(opts, backoff.WithMaxInterval(p.MaxBackoff))
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(opts...), uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}

// permanent errors are returned immediately; retrying cannot change the outcome.
func permanent(err error) bool {
	return errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// retry runs op until it succeeds, fails permanently, or the attempts run out.
// onRetry is called after each failed attempt that will be retried.
func retry(ctx context.Context, p RetryPolicy, op func(context.Context) error, onRetry func(attempt int, err error)) error {
	var last error
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err
		if permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx), func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err)
		}
	})
	// a cancelled wait reports only the context error; keep the cause
	if err != nil && last != nil && ctx.Err() != nil && !errors.Is(err, last) {
		return errors.Join(last, err)
	}
	return err
}
