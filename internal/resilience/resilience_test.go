package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/termbot/internal/resilience"
)

var errAnswer = errors.New("not found")

func TestBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	b := resilience.NewBreaker(resilience.BreakerConfig{
		Name:        "test",
		MaxFailures: 2,
		OpenTimeout: time.Hour,
		Ignore:      func(err error) bool { return errors.Is(err, errAnswer) },
	}, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	// Answers never trip the breaker.
	for range 5 {
		assert.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return errAnswer }), errAnswer)
	}
	assert.Equal(t, "closed", b.State())

	assert.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return boom }), boom)
	assert.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return boom }), boom)
	assert.Equal(t, "open", b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.False(t, called)
}

func TestRetry(t *testing.T) {
	t.Parallel()

	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, Multiplier: 2}
	temporary := errors.New("temporary")

	t.Run("succeeds after failures", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := resilience.Retry(context.Background(), cfg, nil, func(context.Context) error {
			calls++
			if calls < 3 {
				return temporary
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := resilience.Retry(context.Background(), cfg, nil, func(context.Context) error {
			calls++
			return temporary
		})
		assert.ErrorIs(t, err, resilience.ErrExhaustedRetries)
		assert.ErrorIs(t, err, temporary)
		assert.Equal(t, 3, calls)
	})

	t.Run("not retryable", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := resilience.Retry(context.Background(), cfg, func(err error) bool { return !errors.Is(err, errAnswer) },
			func(context.Context) error {
				calls++
				return errAnswer
			})
		assert.ErrorIs(t, err, errAnswer)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := resilience.Retry(ctx, cfg, nil, func(context.Context) error { return temporary })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
