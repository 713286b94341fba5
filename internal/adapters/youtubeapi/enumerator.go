package youtubeapi

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/youtube/v3"

	"mailscout/internal/core/domain"
	"mailscout/internal/platform/logx"
)

// pageSize is the API maximum for PlaylistItems.List.
const pageSize = 50

// Enumerator lists a channel's uploads playlist.
type Enumerator struct {
	svc    *youtube.Service
	logger logx.Logger
}

// NewEnumerator creates an enumerator on svc.
func NewEnumerator(svc *youtube.Service, logger logx.Logger) *Enumerator {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &Enumerator{
		svc:    svc,
		logger: logger.With("component", "api-enumerator"),
	}
}

// Name returns the backend name.
func (e *Enumerator) Name() string {
	return "api"
}

// Enumerate resolves the channel and pages through its uploads, newest
// first, until maxVideos IDs are collected.
func (e *Enumerator) Enumerate(ctx context.Context, channelURL string, maxVideos int) ([]string, error) {
	channelID, err := e.resolveChannel(ctx, channelURL)
	if err != nil {
		return nil, err
	}

	uploads, err := e.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("channel resolved", "channel_id", channelID, "uploads", uploads)

	ids := make([]string, 0)
	token := ""
	for {
		call := e.svc.PlaylistItems.
			List([]string{"contentDetails"}).
			PlaylistId(uploads).
			MaxResults(pageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list uploads of %s: %w", channelID, err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				continue
			}
			ids = append(ids, item.ContentDetails.VideoId)
			if maxVideos > 0 && len(ids) == maxVideos {
				return ids, nil
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		token = resp.NextPageToken
	}
}

// Close is a no-op: the API client holds no session.
func (e *Enumerator) Close() error {
	return nil
}

func (e *Enumerator) resolveChannel(ctx context.Context, channelURL string) (string, error) {
	ref, err := domain.ParseChannelRef(strings.TrimSuffix(channelURL, "/videos"))
	if err != nil {
		return "", err
	}
	if ref.ID != "" {
		return ref.ID, nil
	}

	query := ref.Handle
	if query == "" {
		query = ref.Name
	}

	resp, err := e.svc.Search.
		List([]string{"snippet"}).
		Type("channel").
		Q(query).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search channel %s: %w", query, err)
	}

	for _, item := range resp.Items {
		if item.Id != nil && item.Id.ChannelId != "" {
			return item.Id.ChannelId, nil
		}
		if item.Snippet != nil && item.Snippet.ChannelId != "" {
			return item.Snippet.ChannelId, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrChannelNotFound, query)
}

func (e *Enumerator) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	resp, err := e.svc.Channels.
		List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("get channel %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelID)
	}

	details := resp.Items[0].ContentDetails
	if details == nil || details.RelatedPlaylists == nil || details.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: %s has no uploads playlist", domain.ErrNoVideos, channelID)
	}
	return details.RelatedPlaylists.Uploads, nil
}
