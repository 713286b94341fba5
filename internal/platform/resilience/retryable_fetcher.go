// internal/platform/resilience/retryable_fetcher.go
package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"mailscout/internal/core/domain"
	"mailscout/internal/core/ports"
	"mailscout/internal/platform/logx"
)

// Gate admits one upstream request, blocking until it may be sent.
// *rate.Limiter satisfies it.
type Gate interface {
	Acquire(ctx context.Context) error
}

// RetryableFetcher wraps a Fetcher and retries transient failures
// (network errors) with exponential backoff. NotFound and RateLimited are
// returned at once: retrying them only makes throttling worse. Each retry
// passes through gate first, so retries share the run's request budget.
type RetryableFetcher struct {
	fetcher           ports.Fetcher
	gate              Gate
	maxRetries        int
	backoffBase       time.Duration
	backoffMultiplier float64
	logger            logx.Logger
}

// NewRetryableFetcher creates a RetryableFetcher. gate may be nil.
func NewRetryableFetcher(
	fetcher ports.Fetcher,
	gate Gate,
	maxRetries int,
	backoffBase time.Duration,
	backoffMultiplier float64,
	logger logx.Logger,
) *RetryableFetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoffBase <= 0 {
		backoffBase = 1 * time.Second
	}
	if backoffMultiplier < 1.0 {
		backoffMultiplier = 2.0
	}
	if logger == nil {
		logger = logx.NewNop()
	}

	return &RetryableFetcher{
		fetcher:           fetcher,
		gate:              gate,
		maxRetries:        maxRetries,
		backoffBase:       backoffBase,
		backoffMultiplier: backoffMultiplier,
		logger:            logger.With("component", "retryable-fetcher", "fetcher", fetcher.Name()),
	}
}

// Name returns the name of the wrapped fetcher.
func (r *RetryableFetcher) Name() string {
	return r.fetcher.Name()
}

// Fetch calls the wrapped fetcher, retrying transient failures.
func (r *RetryableFetcher) Fetch(ctx context.Context, videoID string) (domain.VideoMetadata, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.calculateBackoff(attempt - 1)
			r.logger.Debug("backing off before retry",
				"video", videoID,
				"attempt", attempt,
				"delay_ms", backoff.Milliseconds(),
			)

			t := time.NewTimer(backoff)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return domain.VideoMetadata{}, domain.NewFetchError(videoID, domain.FetchCanceled,
					fmt.Errorf("canceled during backoff after %d attempts: %w", attempt, ctx.Err()))
			}

			if r.gate != nil {
				if err := r.gate.Acquire(ctx); err != nil {
					return domain.VideoMetadata{}, domain.NewFetchError(videoID, domain.FetchCanceled,
						fmt.Errorf("canceled waiting for rate limiter after %d attempts: %w", attempt, err))
				}
			}
		}

		md, err := r.fetcher.Fetch(ctx, videoID)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("fetch succeeded after retry", "video", videoID, "attempts", attempt+1)
			}
			return md, nil
		}
		lastErr = err

		kind := domain.KindOf(err)
		if !kind.Transient() || ctx.Err() != nil {
			return domain.VideoMetadata{}, err
		}

		r.logger.Warn("fetch failed",
			"video", videoID,
			"attempt", attempt+1,
			"kind", kind,
			"error", err.Error(),
		)
	}

	return domain.VideoMetadata{}, lastErr
}

// calculateBackoff returns base * multiplier^attempt.
func (r *RetryableFetcher) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.backoffBase) * math.Pow(r.backoffMultiplier, float64(attempt))
	return time.Duration(backoff)
}
