package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailscout/internal/core/domain"
)

func newTestOrchestrator(enum *fakeEnumerator, fetcher *fakeFetcher, maxVideos int) *Orchestrator {
	return NewOrchestrator(OrchestratorOptions{
		Enumerator: enum,
		Harvester:  NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 2}),
		MaxVideos:  maxVideos,
		RunID:      "run-1",
	})
}

func TestOrchestrator_Run(t *testing.T) {
	enum := &fakeEnumerator{ids: []string{"v1", "v2", "v3"}}
	fetcher := newFakeFetcher(map[string]string{
		"v1": "contact: x@y.com",
		"v2": "no email here",
		"v3": "X@Y.COM and z@y.com",
	})
	fetcher.hook = func(context.Context, string) {
		assert.True(t, enum.closed.Load(), "enumerator must be closed before fetching")
	}

	result, err := newTestOrchestrator(enum, fetcher, 0).Run(context.Background(), "@somechannel")

	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/@somechannel/videos", enum.gotURL)
	assert.Equal(t, DefaultMaxVideos, enum.gotMax)

	assert.Equal(t, "run-1", result.Metadata.RunID)
	assert.Equal(t, "https://www.youtube.com/@somechannel/videos", result.Metadata.ChannelURL)
	assert.False(t, result.Metadata.FinishedAt.Before(result.Metadata.StartedAt))
	assert.Len(t, result.Videos, 3)
	assert.Len(t, result.Emails, 2)
}

func TestOrchestrator_DedupesAndCapsIDs(t *testing.T) {
	enum := &fakeEnumerator{ids: []string{"a", "b", "a", "", "c", "d", "b"}}
	fetcher := newFakeFetcher(map[string]string{"a": "", "b": "", "c": "", "d": ""})

	result, err := newTestOrchestrator(enum, fetcher, 3).Run(context.Background(), "https://www.youtube.com/@x")

	require.NoError(t, err)
	require.Len(t, result.Videos, 3)
	assert.Equal(t, "a", result.Videos[0].VideoID)
	assert.Equal(t, "b", result.Videos[1].VideoID)
	assert.Equal(t, "c", result.Videos[2].VideoID)
	assert.Equal(t, 3, enum.gotMax)
}

func TestOrchestrator_EnumerationErrorsAreFatal(t *testing.T) {
	tests := []struct {
		name string
		enum *fakeEnumerator
		want error
	}{
		{"channel not found", &fakeEnumerator{err: domain.ErrChannelNotFound}, domain.ErrChannelNotFound},
		{"no videos", &fakeEnumerator{ids: nil}, domain.ErrNoVideos},
		{"only blanks", &fakeEnumerator{ids: []string{"", ""}}, domain.ErrNoVideos},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newFakeFetcher(nil)

			result, err := newTestOrchestrator(tt.enum, fetcher, 10).Run(context.Background(), "@x")

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, tt.enum.closed.Load())
			assert.Empty(t, fetcher.Calls())
		})
	}
}

func TestOrchestrator_EmptyChannel(t *testing.T) {
	enum := &fakeEnumerator{ids: []string{"v1"}}

	_, err := newTestOrchestrator(enum, newFakeFetcher(nil), 10).Run(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyChannel)
	assert.True(t, enum.closed.Load())
	assert.Empty(t, enum.gotURL)
}

func TestOrchestrator_CancellationReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enum := &fakeEnumerator{ids: []string{"v1", "v2", "v3", "v4"}}
	fetcher := newFakeFetcher(map[string]string{"v1": "a@b.com", "v2": "", "v3": "", "v4": ""})
	fetcher.hook = func(_ context.Context, id string) {
		if id == "v1" {
			cancel()
		}
	}

	o := NewOrchestrator(OrchestratorOptions{
		Enumerator: enum,
		Harvester:  NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 1}),
	})
	result, err := o.Run(ctx, "@x")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Len(t, result.Videos, 4)
	assert.Contains(t, result.Emails, "a@b.com")
	assert.NotEmpty(t, result.Metadata.RunID, "run id is generated when not configured")
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniqueIDs([]string{"a", "a", "b", "c"}, 2))
	assert.Equal(t, []string{"a", "c"}, uniqueIDs([]string{"", "a", "c", "a"}, 10))
	assert.Empty(t, uniqueIDs(nil, 5))
}
