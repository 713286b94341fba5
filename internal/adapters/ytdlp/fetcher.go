package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mailscout/internal/core/domain"
	"mailscout/internal/platform/logx"
)

// Fetcher loads video metadata with `yt-dlp --dump-single-json`.
type Fetcher struct {
	runner  Runner
	timeout time.Duration
	logger  logx.Logger
}

// FetcherOptions configures the fetcher.
type FetcherOptions struct {
	Timeout time.Duration // per video (0 = none)
	Logger  logx.Logger
}

// NewFetcher creates a fetcher on runner.
func NewFetcher(runner Runner, opts FetcherOptions) *Fetcher {
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	return &Fetcher{
		runner:  runner,
		timeout: opts.Timeout,
		logger:  opts.Logger.With("component", "ytdlp-fetcher"),
	}
}

// Name returns the backend name.
func (f *Fetcher) Name() string {
	return "ytdlp"
}

type videoInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Fetch runs yt-dlp for one video.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (domain.VideoMetadata, error) {
	runCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := []string{
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		"--no-playlist",
		domain.WatchURL(videoID),
	}

	stdout, stderr, err := f.runner.Run(runCtx, args)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return domain.VideoMetadata{}, domain.NewFetchError(videoID, domain.FetchCanceled, ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return domain.VideoMetadata{}, domain.NewFetchError(videoID, domain.FetchNetwork,
				fmt.Errorf("timed out after %s", f.timeout))
		}

		kind := classifyStderr(stderr)
		cause := err
		if line := errorLine(stderr); line != "" {
			cause = errors.New(line)
		}
		f.logger.Debug("yt-dlp failed", "video", videoID, "kind", kind, "stderr", errorLine(stderr))
		return domain.VideoMetadata{}, domain.NewFetchError(videoID, kind, cause)
	}

	var info videoInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return domain.VideoMetadata{}, domain.NewFetchError(videoID, domain.FetchUnknown,
			fmt.Errorf("decode yt-dlp output: %w", err))
	}

	if info.ID == "" {
		info.ID = videoID
	}
	return domain.VideoMetadata{
		ID:          info.ID,
		Title:       info.Title,
		Description: info.Description,
	}, nil
}
