// internal/core/domain/errors.go
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Run-level errors.
var (
	// Enumeration errors (fatal for the whole run)
	ErrChannelNotFound = errors.New("channel not found")
	ErrNoVideos        = errors.New("no videos found for channel")
	ErrEmptyChannel    = errors.New("channel url cannot be empty")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// Export errors
	ErrExportFailed = errors.New("export failed")
)

// Per-video fetch errors. A FetchError matches the sentinel of its kind
// through errors.Is.
var (
	ErrFetchNotFound    = errors.New("video not found")
	ErrFetchRateLimited = errors.New("rate limited by upstream")
	ErrFetchNetwork     = errors.New("network error")
	ErrFetchUnknown     = errors.New("unknown fetch error")
	ErrFetchCanceled    = errors.New("fetch canceled")
)

// FetchErrorKind classifies a per-video failure.
type FetchErrorKind string

const (
	FetchNotFound    FetchErrorKind = "not_found"
	FetchRateLimited FetchErrorKind = "rate_limited"
	FetchNetwork     FetchErrorKind = "network_error"
	FetchUnknown     FetchErrorKind = "unknown"
	FetchCanceled    FetchErrorKind = "canceled"
)

// Sentinel returns the sentinel error matching the kind.
func (k FetchErrorKind) Sentinel() error {
	switch k {
	case FetchNotFound:
		return ErrFetchNotFound
	case FetchRateLimited:
		return ErrFetchRateLimited
	case FetchNetwork:
		return ErrFetchNetwork
	case FetchCanceled:
		return ErrFetchCanceled
	default:
		return ErrFetchUnknown
	}
}

// Transient reports whether a retry of the same request may succeed.
func (k FetchErrorKind) Transient() bool {
	return k == FetchNetwork
}

// FetchError is the typed failure returned by fetcher adapters.
type FetchError struct {
	VideoID string
	Kind    FetchErrorKind
	Err     error
}

// NewFetchError builds a FetchError. cause may be nil.
func NewFetchError(videoID string, kind FetchErrorKind, cause error) *FetchError {
	return &FetchError{VideoID: videoID, Kind: kind, Err: cause}
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.VideoID, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.VideoID, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the per-kind sentinel.
func (e *FetchError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// KindOf classifies any error returned while fetching a video.
func KindOf(err error) FetchErrorKind {
	if err == nil {
		return ""
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FetchCanceled
	}

	return FetchUnknown
}
