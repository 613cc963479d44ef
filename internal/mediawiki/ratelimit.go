package mediawiki

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRequestsPerSecond is the default request pacing.
	DefaultRequestsPerSecond = 2.0

	// DefaultBaseDelay is the initial backoff delay.
	DefaultBaseDelay = time.Second

	// DefaultMaxDelay caps the exponential backoff.
	DefaultMaxDelay = 30 * time.Second
)

// Limiter enforces a minimum interval between requests and provides
// exponential backoff for transient failures.
//
// A single Limiter instance is constructed at startup and passed into every
// component that issues remote calls; there is no process-wide singleton.
// It is safe for concurrent use: callers serialise on the internal mutex, so
// the spacing guarantee holds across goroutines sharing one instance.
type Limiter struct {
	mu        sync.Mutex
	interval  time.Duration
	baseDelay time.Duration
	maxDelay  time.Duration
	enabled   bool
	last      time.Time

	// Injectable time source so tests can simulate elapsed time.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter pacing requests at the given rate.
// A rate of zero or below falls back to DefaultRequestsPerSecond.
func NewLimiter(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &Limiter{
		interval:  time.Duration(float64(time.Second) / requestsPerSecond),
		baseDelay: DefaultBaseDelay,
		maxDelay:  DefaultMaxDelay,
		enabled:   true,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// SetBackoffDelays overrides the backoff base and cap.
func (l *Limiter) SetBackoffDelays(base, max time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.baseDelay = base
	l.maxDelay = max
}

// Disable turns the limiter into a no-op. Used for test determinism.
func (l *Limiter) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = false
}

// Wait blocks until at least the configured interval has elapsed since the
// previous call returned. The very first call never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return nil
	}

	if !l.last.IsZero() {
		if wait := l.interval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	l.last = l.now()
	return nil
}

// Backoff blocks for min(baseDelay * 2^attempt, maxDelay), then resets the
// spacing clock so the subsequent Wait does not delay a second time.
func (l *Limiter) Backoff(ctx context.Context, attempt int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return nil
	}

	if err := l.sleep(ctx, l.backoffDelay(attempt)); err != nil {
		return err
	}

	l.last = l.now()
	return nil
}

// backoffDelay computes the delay for an attempt. Caller must hold the lock.
func (l *Limiter) backoffDelay(attempt int) time.Duration {
	delay := l.baseDelay
	for i := 0; i < attempt && delay < l.maxDelay; i++ {
		delay *= 2
	}
	if delay > l.maxDelay {
		delay = l.maxDelay
	}
	return delay
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
