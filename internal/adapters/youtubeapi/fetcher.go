package youtubeapi

import (
	"context"

	"google.golang.org/api/youtube/v3"

	"mailscout/internal/core/domain"
)

// Fetcher loads video snippets through Videos.List.
type Fetcher struct {
	svc *youtube.Service
}

// NewFetcher creates a fetcher on svc.
func NewFetcher(svc *youtube.Service) *Fetcher {
	return &Fetcher{svc: svc}
}

// Name returns the backend name.
func (f *Fetcher) Name() string {
	return "api"
}

// Fetch returns the title and description of one video.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (domain.VideoMetadata, error) {
	resp, err := f.svc.Videos.
		List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return domain.VideoMetadata{}, domain.NewFetchError(videoID, classify(ctx, err), err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return domain.VideoMetadata{}, domain.NewFetchError(videoID, domain.FetchNotFound, nil)
	}

	item := resp.Items[0]
	return domain.VideoMetadata{
		ID:          item.Id,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
	}, nil
}
