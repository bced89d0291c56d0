package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var delays []time.Duration

	result, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(time.Millisecond, 0),
		Retryable:   isTransient,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			delays = append(delays, delay)
		},
	}, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestDo_FailsFastOnNonRetryable(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		Retryable:   isTransient,
	}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errFatal
	})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		Retryable:   isTransient,
	}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, Policy{
		MaxAttempts: 5,
		Backoff:     ExponentialBackoff(time.Hour, 0),
		OnRetry:     func(int, time.Duration, error) { cancel() },
	}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(500*time.Millisecond, 3*time.Second)

	assert.Equal(t, 500*time.Millisecond, b(1))
	assert.Equal(t, time.Second, b(2))
	assert.Equal(t, 2*time.Second, b(3))
	assert.Equal(t, 3*time.Second, b(4))
}

func TestExponentialBackoff_ZeroBase(t *testing.T) {
	b := ExponentialBackoff(0, 3*time.Second)
	for attempt := 0; attempt < 5; attempt++ {
		assert.Zero(t, b(attempt))
	}
}

func TestExponentialBackoff_Saturates(t *testing.T) {
	uncapped := ExponentialBackoff(time.Second, 0)
	assert.Equal(t, time.Duration(math.MaxInt64), uncapped(80))

	capped := ExponentialBackoff(time.Second, time.Minute)
	assert.Equal(t, time.Minute, capped(80))
}
