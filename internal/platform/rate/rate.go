// Package rate throttles upstream requests shared by every worker of a run.
//
// A Limiter combines two policies:
//   - a per-request delay: cumulative throughput across all workers is kept
//     to about one request per Delay (golang.org/x/time/rate pacing);
//   - a batch pause: after every BatchSize completed requests the worker that
//     crossed the threshold sleeps BatchDelay, and every other worker is held
//     at Acquire until that pause is over.
//
// Backoff extends the same gate after a rate-limited response.
package rate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	xrate "golang.org/x/time/rate"
)

// Config is the immutable throttling policy of a run.
type Config struct {
	Delay      time.Duration // between two requests, across all workers (0 = none)
	BatchSize  int           // pause after every BatchSize completions (0 = never)
	BatchDelay time.Duration // length of the batch pause
	Backoff    time.Duration // gate applied after a rate-limited response (0 = off)
}

// Validate rejects negative values.
func (c Config) Validate() error {
	switch {
	case c.Delay < 0:
		return fmt.Errorf("delay must be >= 0, got %s", c.Delay)
	case c.BatchSize < 0:
		return fmt.Errorf("batch size must be >= 0, got %d", c.BatchSize)
	case c.BatchDelay < 0:
		return fmt.Errorf("batch delay must be >= 0, got %s", c.BatchDelay)
	case c.Backoff < 0:
		return fmt.Errorf("backoff must be >= 0, got %s", c.Backoff)
	}
	return nil
}

// BatchEnabled reports whether batch pauses are active.
func (c Config) BatchEnabled() bool {
	return c.BatchSize > 0 && c.BatchDelay > 0
}

// Clock abstracts time so tests can drive the limiter without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Limiter is safe for concurrent use by all workers.
type Limiter struct {
	cfg   Config
	clock Clock
	pacer *xrate.Limiter // nil when Delay is zero

	completed atomic.Int64

	mu    sync.Mutex
	until time.Time // Acquire does not return before this instant
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(l *Limiter) {
		if c != nil {
			l.clock = c
		}
	}
}

// New builds a limiter. Negative values in cfg are treated as zero.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.BatchSize < 0 {
		cfg.BatchSize = 0
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}

	l := &Limiter{cfg: cfg, clock: SystemClock()}
	for _, opt := range opts {
		opt(l)
	}

	if cfg.Delay > 0 {
		l.pacer = xrate.NewLimiter(xrate.Every(cfg.Delay), 1)
	}

	return l
}

// Config returns the policy the limiter was built with.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Completed returns the number of recorded completions.
func (l *Limiter) Completed() int64 {
	return l.completed.Load()
}

// Acquire blocks until the caller may issue its next request.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait := l.gateWait()
		if wait <= 0 {
			break
		}
		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	if l.pacer == nil {
		return ctx.Err()
	}

	now := l.clock.Now()
	r := l.pacer.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate: reservation refused")
	}

	if err := l.clock.Sleep(ctx, r.DelayFrom(now)); err != nil {
		r.CancelAt(l.clock.Now())
		return err
	}
	return nil
}

// RecordCompletion counts one finished request. When the count reaches a
// multiple of BatchSize, the caller sleeps BatchDelay and paused is true.
// Each threshold is crossed by exactly one caller.
func (l *Limiter) RecordCompletion(ctx context.Context) (paused bool, err error) {
	n := l.completed.Add(1)
	if !l.cfg.BatchEnabled() || n%int64(l.cfg.BatchSize) != 0 {
		return false, nil
	}

	l.extendGate(l.cfg.BatchDelay)
	return true, l.clock.Sleep(ctx, l.cfg.BatchDelay)
}

// Backoff holds every worker at Acquire for the configured backoff. It
// returns the applied duration, zero when backoff is disabled.
func (l *Limiter) Backoff() time.Duration {
	if l.cfg.Backoff <= 0 {
		return 0
	}
	l.extendGate(l.cfg.Backoff)
	return l.cfg.Backoff
}

func (l *Limiter) extendGate(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t := l.clock.Now().Add(d); t.After(l.until) {
		l.until = t
	}
}

func (l *Limiter) gateWait() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.until.IsZero() {
		return 0
	}
	return l.until.Sub(l.clock.Now())
}
