package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mailscout/internal/core/domain"
	"mailscout/internal/platform/logx"
)

// Enumerator lists channel uploads with `yt-dlp --flat-playlist`. It owns
// its runner and closes it in Close.
type Enumerator struct {
	runner Runner
	logger logx.Logger
}

// NewEnumerator creates an enumerator on runner.
func NewEnumerator(runner Runner, logger logx.Logger) *Enumerator {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &Enumerator{
		runner: runner,
		logger: logger.With("component", "ytdlp-enumerator"),
	}
}

// Name returns the backend name.
func (e *Enumerator) Name() string {
	return "ytdlp"
}

// Enumerate returns up to maxVideos IDs in playlist order.
func (e *Enumerator) Enumerate(ctx context.Context, channelURL string, maxVideos int) ([]string, error) {
	args := []string{
		"--flat-playlist",
		"--print", "id",
		"--no-warnings",
	}
	if maxVideos > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(maxVideos))
	}
	args = append(args, channelURL)

	stdout, stderr, err := e.runner.Run(ctx, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if channelMissing(stderr) {
			return nil, fmt.Errorf("%w: %s", domain.ErrChannelNotFound, errorLine(stderr))
		}
		if line := errorLine(stderr); line != "" {
			return nil, fmt.Errorf("yt-dlp: %s: %w", line, err)
		}
		return nil, err
	}

	ids := parseIDs(stdout, maxVideos)
	e.logger.Debug("playlist listed", "channel", channelURL, "videos", len(ids))
	return ids, nil
}

// Close releases the runner.
func (e *Enumerator) Close() error {
	if c, ok := e.runner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func parseIDs(out []byte, limit int) []string {
	ids := make([]string, 0)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		// yt-dlp prints "NA" for entries without an id
		if id == "" || id == "NA" {
			continue
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids
}
