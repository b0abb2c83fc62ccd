package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryBackoff_WithinJitterBounds(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitterFraction))
		hi := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"dial tcp 127.0.0.1:5432: connection refused", true},
		{"connection reset by peer", true},
		{"write: broken pipe", true},
		{"i/o timeout", true},
		{"unexpected EOF", true},
		{"could not connect to server", true},
		{"syntax error at or near", false},
		{"duplicate key value violates unique constraint", false},
		{"relation \"books\" does not exist", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(errors.New(tt.msg)))
		})
	}
	assert.False(t, isConnectionError(nil))
}

func instantRetrier(retryable func(error) bool) *retrier {
	r := newRetrier(nil, retryable)
	r.backoff = func(int) time.Duration { return 0 }
	return r
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := instantRetrier(nil).do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := instantRetrier(nil).do(context.Background(), "connect", func() error {
		calls++
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, defaultRetryAttempts, calls)
	assert.Contains(t, err.Error(), "connect after 3 attempts")
}

func TestRetrier_StopsOnNonRetryableError(t *testing.T) {
	calls := 0
	sqlErr := errors.New("syntax error")
	err := instantRetrier(isConnectionError).do(context.Background(), "migrate", func() error {
		calls++
		return sqlErr
	})

	assert.Same(t, sqlErr, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRetrier(nil, nil)
	r.backoff = func(int) time.Duration { return time.Hour }

	err := r.do(ctx, "connect", func() error { return errors.New("connection refused") })

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
