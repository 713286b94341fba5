package ytdlp

import (
	"strings"

	"mailscout/internal/core/domain"
)

// stderr markers, checked in order: a throttled request often also reports
// "Unable to download", so rate limiting wins over network errors.
var (
	rateLimitedMarkers = []string{
		"http error 429",
		"too many requests",
		"http error 403",
		"sign in to confirm you",
	}
	notFoundMarkers = []string{
		"video unavailable",
		"private video",
		"http error 404",
		"has been removed",
		"this video is not available",
		"does not exist",
	}
	networkMarkers = []string{
		"unable to download",
		"timed out",
		"connection",
		"temporary failure in name resolution",
		"network is unreachable",
	}
)

// classifyStderr maps yt-dlp error output to a fetch error kind.
func classifyStderr(stderr string) domain.FetchErrorKind {
	s := strings.ToLower(stderr)
	switch {
	case containsAny(s, rateLimitedMarkers):
		return domain.FetchRateLimited
	case containsAny(s, notFoundMarkers):
		return domain.FetchNotFound
	case containsAny(s, networkMarkers):
		return domain.FetchNetwork
	default:
		return domain.FetchUnknown
	}
}

// channelMissing reports whether enumeration failed because the channel
// does not exist.
func channelMissing(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "does not exist") || strings.Contains(s, "http error 404")
}

// errorLine returns the first "ERROR:" line of stderr, or its first
// non-empty line.
func errorLine(stderr string) string {
	var first string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
		if first == "" {
			first = line
		}
	}
	return first
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
