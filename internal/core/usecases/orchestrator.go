// internal/core/usecases/orchestrator.go
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mailscout/internal/core/domain"
	"mailscout/internal/core/ports"
	"mailscout/internal/platform/logx"
)

// DefaultMaxVideos caps enumeration when no limit is configured.
const DefaultMaxVideos = 300

// Orchestrator drives a full run: enumerate the channel, release the
// enumeration backend, then harvest every video.
type Orchestrator struct {
	enumerator ports.Enumerator
	harvester  *Harvester
	maxVideos  int
	runID      string
	now        func() time.Time
	logger     logx.Logger
}

// OrchestratorOptions configures the orchestrator.
type OrchestratorOptions struct {
	Enumerator ports.Enumerator
	Harvester  *Harvester
	MaxVideos  int
	RunID      string // generated when empty
	Logger     logx.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.MaxVideos <= 0 {
		opts.MaxVideos = DefaultMaxVideos
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	return &Orchestrator{
		enumerator: opts.Enumerator,
		harvester:  opts.Harvester,
		maxVideos:  opts.MaxVideos,
		runID:      opts.RunID,
		now:        time.Now,
		logger:     opts.Logger.With("component", "orchestrator", "run_id", opts.RunID),
	}
}

// Run harvests the channel. Enumeration failures are fatal and return a nil
// result. When ctx is canceled during harvesting, the partial result is
// returned together with the context error.
func (o *Orchestrator) Run(ctx context.Context, channelURL string) (*domain.AggregateResult, error) {
	started := o.now()

	url, err := domain.NormalizeChannelURL(channelURL)
	if err != nil {
		_ = o.enumerator.Close()
		return nil, err
	}

	ids, err := o.enumerate(ctx, url)
	if err != nil {
		return nil, err
	}

	tasks := domain.NewVideoTasks(ids)
	o.logger.Info("videos enumerated", "channel", url, "videos", len(tasks), "backend", o.enumerator.Name())

	result := o.harvester.ProcessTasks(ctx, tasks)

	finished := o.now()
	result.Metadata = domain.RunMetadata{
		RunID:      o.runID,
		ChannelURL: url,
		StartedAt:  started,
		FinishedAt: finished,
		Duration:   finished.Sub(started),
	}

	o.logger.Info("run completed",
		"videos", len(result.Videos),
		"emails", len(result.Emails),
		"duration_ms", result.Metadata.Duration.Milliseconds(),
	)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run interrupted: %w", err)
	}
	return result, nil
}

// enumerate lists the channel videos and closes the enumerator before any
// video is fetched.
func (o *Orchestrator) enumerate(ctx context.Context, url string) ([]string, error) {
	defer func() {
		if err := o.enumerator.Close(); err != nil {
			o.logger.Warn("failed to close enumerator", "error", err.Error())
		}
	}()

	o.logger.Info("enumerating channel", "channel", url, "max_videos", o.maxVideos)

	raw, err := o.enumerator.Enumerate(ctx, url, o.maxVideos)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", url, err)
	}

	ids := uniqueIDs(raw, o.maxVideos)
	if len(ids) == 0 {
		return nil, fmt.Errorf("enumerate %s: %w", url, domain.ErrNoVideos)
	}
	return ids, nil
}

// uniqueIDs drops blanks and duplicates, keeping first appearance, and
// caps the list.
func uniqueIDs(raw []string, limit int) []string {
	ids := make([]string, 0, min(len(raw), limit))
	seen := make(map[string]struct{}, len(raw))
	for _, id := range raw {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids
}
