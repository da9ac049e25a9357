package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := retry(context.Background(), RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Millisecond}, func(context.Context) error {
		calls++
		return ErrUnknownAccount
	}, nil)
	assert.ErrorIs(t, err, ErrUnknownAccount)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls, retried := 0, 0
	err := retry(context.Background(), RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, func(context.Context) error {
		calls++
		return errStoreDown
	}, func(int, error) { retried++ })
	assert.True(t, errors.Is(err, errStoreDown))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retried)
}

func TestRetryKeepsCauseWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	err := retry(ctx, RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Hour}, func(context.Context) error {
		calls++
		return errStoreDown
	}, func(int, error) { cancel() })
	assert.ErrorIs(t, err, errStoreDown)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
