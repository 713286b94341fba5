// internal/core/ports/source.go
package ports

import (
	"context"

	"mailscout/internal/core/domain"
)

// Enumerator lists the video IDs of a channel. Implementations own whatever
// session they need (browser, HTTP client, API service) and release it in
// Close; the core never reaches into it.
type Enumerator interface {
	// Name returns the backend name (ej: "ytdlp", "webpage", "api")
	Name() string

	// Enumerate returns at most maxVideos IDs in channel order. A missing
	// channel is reported as domain.ErrChannelNotFound.
	Enumerate(ctx context.Context, channelURL string, maxVideos int) ([]string, error)

	// Close releases the backend resources
	Close() error
}

// Fetcher loads the metadata of one video. Failures are *domain.FetchError
// so callers can tell NotFound, RateLimited and NetworkError apart.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, videoID string) (domain.VideoMetadata, error)
}

// Extractor finds email addresses in free text. It never fails.
type Extractor interface {
	Extract(text string) []string
}

// Progress observes per-video completion.
type Progress interface {
	Start(total int)
	Advance(outcome domain.VideoOutcome)
	Stop()
}

// NoopProgress discards progress events.
type NoopProgress struct{}

func (NoopProgress) Start(int)                   {}
func (NoopProgress) Advance(domain.VideoOutcome) {}
func (NoopProgress) Stop()                       {}
