package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailscout/internal/core/domain"
	"mailscout/internal/core/ports"
	"mailscout/internal/platform/rate"
)

func TestHarvester_ChannelScenario(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		"v1": "contact: x@y.com",
		"v2": "no email here",
		"v3": "X@Y.COM and z@y.com",
	})
	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 2})

	result := h.ProcessTasks(context.Background(), domain.NewVideoTasks([]string{"v1", "v2", "v3"}))

	require.Len(t, result.Emails, 2)

	x := result.Emails["x@y.com"]
	assert.ElementsMatch(t, []string{"v1", "v3"}, x.Sources)
	assert.Equal(t, 2, x.Count)

	z := result.Emails["z@y.com"]
	assert.Equal(t, []string{"v3"}, z.Sources)
	assert.Equal(t, "v3", z.FirstVideoID)
	assert.Equal(t, 1, z.Count)

	require.Len(t, result.Videos, 3)
	assert.Equal(t, "v1", result.Videos[0].VideoID)
	assert.Equal(t, "v2", result.Videos[1].VideoID)
	assert.Equal(t, "v3", result.Videos[2].VideoID)
	assert.Empty(t, result.Videos[1].Emails)
	assert.True(t, result.Videos[1].HasDescription)
	assert.Equal(t, []string{"x@y.com", "z@y.com"}, result.Videos[2].Emails)
}

func TestHarvester_FailureDoesNotAbortRun(t *testing.T) {
	descs := make(map[string]string)
	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("v%d", i)
		ids = append(ids, id)
		descs[id] = fmt.Sprintf("mail me at user%d@example.com", i)
	}
	fetcher := newFakeFetcher(descs)
	fetcher.errs["v4"] = domain.NewFetchError("v4", domain.FetchNetwork, errors.New("Connection reset"))

	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 3})
	result := h.ProcessTasks(context.Background(), domain.NewVideoTasks(ids))

	stats := result.Stats()
	assert.Equal(t, 8, stats.Processed)
	assert.Equal(t, 7, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.FailuresByKind[domain.FetchNetwork])
	assert.Len(t, result.Emails, 7)

	failed := result.Videos[4]
	assert.Equal(t, domain.StatusFailed, failed.Status)
	assert.Equal(t, domain.FetchNetwork, failed.ErrorKind)
	assert.Contains(t, failed.Error, "Connection reset")
}

func TestHarvester_PreservesOrderWhenCompletionIsReversed(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	fetcher := newFakeFetcher(map[string]string{"a": "", "b": "", "c": "", "d": ""})
	for i, id := range ids {
		fetcher.delays[id] = time.Duration(len(ids)-i) * 15 * time.Millisecond
	}

	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 4})
	result := h.ProcessTasks(context.Background(), domain.NewVideoTasks(ids))

	require.Len(t, result.Videos, 4)
	for i, v := range result.Videos {
		assert.Equal(t, ids[i], v.VideoID)
		assert.Equal(t, i, v.Order)
		assert.False(t, v.HasDescription)
	}
}

func TestHarvester_RespectsWorkerBound(t *testing.T) {
	descs := make(map[string]string)
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%02d", i)
		descs[ids[i]] = "nothing"
	}
	fetcher := newFakeFetcher(descs)
	for _, id := range ids {
		fetcher.delays[id] = 5 * time.Millisecond
	}

	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 3})
	h.ProcessTasks(context.Background(), domain.NewVideoTasks(ids))

	assert.LessOrEqual(t, fetcher.maxInFlight.Load(), int32(3))
	assert.Len(t, fetcher.Calls(), 20)
}

func TestHarvester_RateLimitedTriggersBackoff(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"v1": "", "v2": ""})
	fetcher.errs["v1"] = domain.NewFetchError("v1", domain.FetchRateLimited, errors.New("HTTP Error 429"))

	limiter := rate.New(rate.Config{Backoff: 60 * time.Millisecond})
	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Limiter: limiter, Workers: 1})

	start := time.Now()
	result := h.ProcessTasks(context.Background(), domain.NewVideoTasks([]string{"v1", "v2"}))

	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, domain.FetchRateLimited, result.Videos[0].ErrorKind)
	assert.True(t, result.Videos[1].OK())
}

func TestHarvester_CancellationSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids := []string{"v0", "v1", "v2", "v3", "v4"}
	descs := map[string]string{}
	for _, id := range ids {
		descs[id] = "a@b.com"
	}
	fetcher := newFakeFetcher(descs)
	fetcher.hook = func(_ context.Context, id string) {
		if id == "v0" {
			cancel()
		}
	}

	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 1})
	result := h.ProcessTasks(ctx, domain.NewVideoTasks(ids))

	require.Len(t, result.Videos, len(ids))
	assert.True(t, result.Videos[0].OK())
	for _, v := range result.Videos[1:] {
		assert.Equal(t, domain.StatusSkipped, v.Status, v.VideoID)
		assert.Equal(t, domain.FetchCanceled, v.ErrorKind, v.VideoID)
	}
	assert.Equal(t, 4, result.Stats().Skipped)
}

func TestHarvester_PanicIsRecordedAsFailure(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"ok": "x@y.com", "boom": ""})
	fetcher.hook = func(_ context.Context, id string) {
		if id == "boom" {
			panic("unexpected payload")
		}
	}

	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 2})
	result := h.ProcessTasks(context.Background(), domain.NewVideoTasks([]string{"ok", "boom"}))

	require.Len(t, result.Videos, 2)
	assert.True(t, result.Videos[0].OK())
	assert.Equal(t, domain.StatusFailed, result.Videos[1].Status)
	assert.Equal(t, domain.FetchUnknown, result.Videos[1].ErrorKind)
	assert.Contains(t, result.Videos[1].Error, "panicked")
}

func TestHarvester_ReportsProgress(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"v1": "a@b.com", "v2": ""})
	progress := &recordingProgress{}

	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Workers: 2, Progress: progress})
	h.ProcessTasks(context.Background(), domain.NewVideoTasks([]string{"v1", "v2", "missing"}))

	assert.Equal(t, 3, progress.total)
	require.Len(t, progress.advanced, 3)
	assert.True(t, progress.stopped)

	ids := make([]string, 0, 3)
	for _, o := range progress.advanced {
		ids = append(ids, o.VideoID)
		assert.Equal(t, domain.WatchURL(o.VideoID), o.URL)
	}
	assert.ElementsMatch(t, []string{"v1", "v2", "missing"}, ids)
}

// panickyProgress panics on the n-th Advance.
type panickyProgress struct {
	ports.NoopProgress
	n     int32
	calls atomic.Int32
}

func (p *panickyProgress) Advance(domain.VideoOutcome) {
	if p.calls.Add(1) == p.n {
		panic("progress sink exploded")
	}
}

func TestHarvester_PanicAfterRecordKeepsSingleEntry(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"a": "", "b": "b@x.com", "c": ""})
	h := NewHarvester(HarvesterOptions{
		Fetcher:  fetcher,
		Workers:  1,
		Progress: &panickyProgress{n: 2},
	})

	result := h.ProcessTasks(context.Background(), domain.NewVideoTasks([]string{"a", "b", "c"}))

	require.Len(t, result.Videos, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, result.Videos[i].VideoID)
		assert.Equal(t, domain.StatusSuccess, result.Videos[i].Status)
	}
	assert.Equal(t, 3, result.Stats().Succeeded)
	assert.Equal(t, 1, result.Emails["b@x.com"].Count)
}

func TestHarvester_BatchPauseCountsEveryCompletion(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"v1": "", "v2": "", "v3": ""})
	limiter := rate.New(rate.Config{BatchSize: 2, BatchDelay: time.Millisecond})

	h := NewHarvester(HarvesterOptions{Fetcher: fetcher, Limiter: limiter, Workers: 2})
	h.ProcessTasks(context.Background(), domain.NewVideoTasks([]string{"v1", "v2", "v3", "gone"}))

	assert.Equal(t, int64(4), limiter.Completed(), "failures count toward the batch")
}

func TestHarvester_EmptyTaskList(t *testing.T) {
	h := NewHarvester(HarvesterOptions{Fetcher: newFakeFetcher(nil)})

	result := h.ProcessTasks(context.Background(), nil)

	assert.Empty(t, result.Videos)
	assert.Empty(t, result.Emails)
	assert.Equal(t, 10, h.Workers())
}
