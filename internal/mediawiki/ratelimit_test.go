package mediawiki

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock simulates elapsed time so limiter tests run without real delay.
type fakeClock struct {
	now     time.Time
	slept   []time.Duration
	elapsed time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) install(l *Limiter) {
	l.now = func() time.Time { return c.now }
	l.sleep = func(_ context.Context, d time.Duration) error {
		c.slept = append(c.slept, d)
		c.elapsed += d
		c.now = c.now.Add(d)
		return nil
	}
}

func TestLimiter_Wait(t *testing.T) {
	t.Run("first call never blocks", func(t *testing.T) {
		limiter := NewLimiter(2.0)
		clock := newFakeClock()
		clock.install(limiter)

		require.NoError(t, limiter.Wait(context.Background()))
		assert.Empty(t, clock.slept)
	})

	t.Run("consecutive calls are spaced by the interval", func(t *testing.T) {
		limiter := NewLimiter(2.0)
		clock := newFakeClock()
		clock.install(limiter)

		const n = 5
		for i := 0; i < n; i++ {
			require.NoError(t, limiter.Wait(context.Background()))
		}

		// N calls at 2 req/s consume at least (N-1) * 0.5s of simulated time.
		assert.GreaterOrEqual(t, clock.elapsed, time.Duration(n-1)*500*time.Millisecond)
	})

	t.Run("no wait when enough time already elapsed", func(t *testing.T) {
		limiter := NewLimiter(2.0)
		clock := newFakeClock()
		clock.install(limiter)

		require.NoError(t, limiter.Wait(context.Background()))
		clock.now = clock.now.Add(time.Second)

		require.NoError(t, limiter.Wait(context.Background()))
		assert.Empty(t, clock.slept)
	})

	t.Run("disabled limiter is a no-op", func(t *testing.T) {
		limiter := NewLimiter(2.0)
		clock := newFakeClock()
		clock.install(limiter)
		limiter.Disable()

		for i := 0; i < 10; i++ {
			require.NoError(t, limiter.Wait(context.Background()))
		}
		require.NoError(t, limiter.Backoff(context.Background(), 3))
		assert.Empty(t, clock.slept)
	})
}

func TestLimiter_Backoff(t *testing.T) {
	t.Run("doubles up to the cap", func(t *testing.T) {
		limiter := NewLimiter(2.0)
		limiter.SetBackoffDelays(5*time.Second, 30*time.Second)
		clock := newFakeClock()
		clock.install(limiter)

		want := []time.Duration{
			5 * time.Second,
			10 * time.Second,
			20 * time.Second,
			30 * time.Second,
			30 * time.Second,
		}
		for attempt := range want {
			require.NoError(t, limiter.Backoff(context.Background(), attempt))
		}

		assert.Equal(t, want, clock.slept)
	})

	t.Run("resets the spacing clock so wait does not double-delay", func(t *testing.T) {
		limiter := NewLimiter(2.0)
		clock := newFakeClock()
		clock.install(limiter)

		require.NoError(t, limiter.Wait(context.Background()))
		require.NoError(t, limiter.Backoff(context.Background(), 2))
		slept := len(clock.slept)

		// The backoff already elapsed more than the interval; an immediate
		// wait afterwards would only block if the clock had not been reset.
		clock.now = clock.now.Add(limiter.interval)
		require.NoError(t, limiter.Wait(context.Background()))
		assert.Len(t, clock.slept, slept)
	})
}

func TestLimiter_WaitCancellation(t *testing.T) {
	limiter := NewLimiter(0.001) // 1000s interval, forces a sleep
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, limiter.Wait(ctx))
	cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
