// internal/core/domain/video.go
package domain

import (
	"net/url"
	"strings"
)

const (
	youtubeBase = "https://www.youtube.com"
	watchPrefix = youtubeBase + "/watch?v="
)

// VideoTask is one unit of work handed to the pool. Order is the position
// in the enumeration and is used to rebuild that order after completion.
type VideoTask struct {
	ID    string
	Order int
}

// NewVideoTasks numbers video IDs in enumeration order.
func NewVideoTasks(ids []string) []VideoTask {
	tasks := make([]VideoTask, len(ids))
	for i, id := range ids {
		tasks[i] = VideoTask{ID: id, Order: i}
	}
	return tasks
}

// VideoMetadata is what a fetcher returns for one video.
type VideoMetadata struct {
	ID          string
	Title       string
	Description string
}

// WatchURL returns the public watch page of a video.
func WatchURL(videoID string) string {
	return watchPrefix + url.QueryEscape(videoID)
}

// NormalizeChannelURL turns a handle or partial URL into the channel's
// /videos listing URL.
//
//	"@bbc"                          -> "https://www.youtube.com/@bbc/videos"
//	"https://www.youtube.com/@bbc"  -> "https://www.youtube.com/@bbc/videos"
func NormalizeChannelURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyChannel
	}

	if !strings.HasPrefix(raw, "http") {
		return youtubeBase + "/" + strings.Trim(raw, "/") + "/videos", nil
	}

	raw = strings.TrimRight(raw, "/")
	if !strings.HasSuffix(raw, "/videos") {
		raw += "/videos"
	}
	return raw, nil
}

// ChannelRef is the identifying part of a channel URL: either a channel ID
// (UC...) or a handle (@name), or a legacy /c/ or /user/ name.
type ChannelRef struct {
	ID     string
	Handle string
	Name   string
}

// ParseChannelRef extracts the channel reference from a channel URL.
func ParseChannelRef(channelURL string) (ChannelRef, error) {
	u, err := url.Parse(channelURL)
	if err != nil {
		return ChannelRef{}, err
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return ChannelRef{}, ErrEmptyChannel
	}

	switch {
	case strings.HasPrefix(parts[0], "@"):
		return ChannelRef{Handle: parts[0]}, nil
	case (parts[0] == "channel" || parts[0] == "c" || parts[0] == "user") && len(parts) > 1:
		if parts[0] == "channel" {
			return ChannelRef{ID: parts[1]}, nil
		}
		return ChannelRef{Name: parts[1]}, nil
	default:
		return ChannelRef{Name: parts[0]}, nil
	}
}
