// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mailscout/internal/core/domain"
)

// fakeFetcher serves descriptions from a map. Missing IDs are NotFound.
type fakeFetcher struct {
	descriptions map[string]string
	errs         map[string]error
	delays       map[string]time.Duration
	hook         func(ctx context.Context, id string)

	mu          sync.Mutex
	calls       []string
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeFetcher(descriptions map[string]string) *fakeFetcher {
	return &fakeFetcher{
		descriptions: descriptions,
		errs:         make(map[string]error),
		delays:       make(map[string]time.Duration),
	}
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context, id string) (domain.VideoMetadata, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.hook != nil {
		f.hook(ctx, id)
	}

	if d := f.delays[id]; d > 0 {
		select {
		case <-ctx.Done():
			return domain.VideoMetadata{}, domain.NewFetchError(id, domain.FetchCanceled, ctx.Err())
		case <-time.After(d):
		}
	}

	if err := f.errs[id]; err != nil {
		return domain.VideoMetadata{}, err
	}

	desc, ok := f.descriptions[id]
	if !ok {
		return domain.VideoMetadata{}, domain.NewFetchError(id, domain.FetchNotFound, nil)
	}
	return domain.VideoMetadata{ID: id, Title: "title " + id, Description: desc}, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

// fakeEnumerator returns a fixed ID list.
type fakeEnumerator struct {
	ids    []string
	err    error
	closed atomic.Bool

	gotURL string
	gotMax int
}

func (e *fakeEnumerator) Name() string { return "fake" }

func (e *fakeEnumerator) Enumerate(_ context.Context, channelURL string, maxVideos int) ([]string, error) {
	e.gotURL = channelURL
	e.gotMax = maxVideos
	if e.err != nil {
		return nil, e.err
	}
	return e.ids, nil
}

func (e *fakeEnumerator) Close() error {
	e.closed.Store(true)
	return nil
}

// recordingProgress counts progress events.
type recordingProgress struct {
	mu       sync.Mutex
	total    int
	advanced []domain.VideoOutcome
	stopped  bool
}

func (p *recordingProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

func (p *recordingProgress) Advance(o domain.VideoOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanced = append(p.advanced, o)
}

func (p *recordingProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}
