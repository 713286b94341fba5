// internal/core/usecases/harvester.go
package usecases

import (
	"context"
	"time"

	"mailscout/internal/core/domain"
	"mailscout/internal/core/ports"
	"mailscout/internal/platform/logx"
	"mailscout/internal/platform/rate"
	"mailscout/internal/platform/workerpool"
)

// Harvester fetches every video of a task list concurrently and aggregates
// the addresses found in their descriptions.
type Harvester struct {
	fetcher   ports.Fetcher
	extractor ports.Extractor
	limiter   *rate.Limiter
	pool      *workerpool.WorkerPool
	progress  ports.Progress
	logger    logx.Logger
}

// HarvesterOptions configures the harvester.
type HarvesterOptions struct {
	Fetcher   ports.Fetcher
	Extractor ports.Extractor
	Limiter   *rate.Limiter
	Workers   int
	Logger    logx.Logger
	Progress  ports.Progress
}

// NewHarvester creates a harvester. Extractor, Limiter, Logger and Progress
// fall back to the regex extractor, an unlimited limiter, a nop logger and
// no progress reporting.
func NewHarvester(opts HarvesterOptions) *Harvester {
	if opts.Extractor == nil {
		opts.Extractor = NewExtractor()
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.New(rate.Config{})
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Progress == nil {
		opts.Progress = ports.NoopProgress{}
	}

	return &Harvester{
		fetcher:   opts.Fetcher,
		extractor: opts.Extractor,
		limiter:   opts.Limiter,
		pool: workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
			Workers: opts.Workers,
			Logger:  opts.Logger,
		}),
		progress: opts.Progress,
		logger:   opts.Logger.With("component", "harvester"),
	}
}

// Workers returns the effective concurrency.
func (h *Harvester) Workers() int {
	return h.pool.Workers()
}

// ProcessTasks runs every task and returns the finalized aggregate. Every
// task appears exactly once in the result: fetched, failed, or skipped when
// ctx was canceled before it could run.
func (h *Harvester) ProcessTasks(ctx context.Context, tasks []domain.VideoTask) *domain.AggregateResult {
	agg := NewAggregator()

	h.progress.Start(len(tasks))
	defer h.progress.Stop()

	cfg := h.limiter.Config()
	h.logger.Info("processing videos",
		"videos", len(tasks),
		"workers", min(h.pool.Workers(), len(tasks)),
		"delay_ms", cfg.Delay.Milliseconds(),
		"batch_size", cfg.BatchSize,
		"batch_delay_ms", cfg.BatchDelay.Milliseconds(),
	)

	jobs := make([]workerpool.Task, len(tasks))
	for i, t := range tasks {
		jobs[i] = &videoJob{task: t, h: h, agg: agg}
	}

	results := h.pool.Run(ctx, jobs)

	// Jobs that returned an error (or never ran) did not record themselves.
	// A job that panicked after recording keeps its first entry.
	for _, res := range results {
		if res.Error == nil && !res.Skipped {
			continue
		}
		job := res.Task.(*videoJob)
		if job.recorded {
			h.logger.Warn("video failed after being recorded", "video", job.task.ID, "error", res.Error)
			continue
		}
		err := res.Error
		if err == nil {
			err = domain.NewFetchError(job.task.ID, domain.FetchCanceled, context.Canceled)
		}
		h.progress.Advance(agg.RecordFailure(job.task, err))
	}

	result := agg.Finalize()
	stats := result.Stats()
	h.logger.Info("videos processed",
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"emails", stats.DistinctEmails,
	)
	return result
}

// videoJob processes one video on a pool worker.
type videoJob struct {
	task domain.VideoTask
	h    *Harvester
	agg  *Aggregator

	// set once the outcome is in agg; read after the pool has returned
	recorded bool
}

func (j *videoJob) Name() string {
	return j.task.ID
}

func (j *videoJob) Execute(ctx context.Context) error {
	h := j.h

	if err := h.limiter.Acquire(ctx); err != nil {
		return err
	}

	start := time.Now()
	md, err := h.fetcher.Fetch(ctx, j.task.ID)

	var outcome domain.VideoOutcome
	if err != nil {
		outcome = j.agg.RecordFailure(j.task, err)
		j.recorded = true
		if outcome.ErrorKind == domain.FetchRateLimited {
			if d := h.limiter.Backoff(); d > 0 {
				h.logger.Warn("rate limited, backing off", "video", j.task.ID, "backoff_ms", d.Milliseconds())
			}
		}
		if outcome.Status == domain.StatusFailed {
			h.logger.Warn("fetch failed", "video", j.task.ID, "kind", outcome.ErrorKind, "error", err.Error())
		}
	} else {
		emails := h.extractor.Extract(md.Description)
		outcome = j.agg.RecordSuccess(j.task, md, emails)
		j.recorded = true
		h.logger.Debug("video processed",
			"video", j.task.ID,
			"emails", len(outcome.Emails),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	h.progress.Advance(outcome)

	paused, err := h.limiter.RecordCompletion(ctx)
	if paused {
		h.logger.Info("batch pause",
			"completed", h.limiter.Completed(),
			"pause_ms", h.limiter.Config().BatchDelay.Milliseconds(),
		)
	}
	if err != nil {
		h.logger.Debug("batch pause interrupted", "error", err.Error())
	}
	return nil
}

func failureOutcome(task domain.VideoTask, err error) domain.VideoOutcome {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.FetchUnknown
	}

	status := domain.StatusFailed
	if kind == domain.FetchCanceled {
		status = domain.StatusSkipped
	}

	outcome := domain.VideoOutcome{
		VideoID:   task.ID,
		URL:       domain.WatchURL(task.ID),
		Order:     task.Order,
		Status:    status,
		Emails:    []string{},
		ErrorKind: kind,
	}
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}
