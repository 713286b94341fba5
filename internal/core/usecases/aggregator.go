// internal/core/usecases/aggregator.go
package usecases

import (
	"sort"
	"strings"
	"sync"

	"mailscout/internal/core/domain"
)

// Aggregator collects per-video outcomes from concurrent workers. Record is
// the single mutation point: the outcome list and the email index are
// updated under the same lock.
type Aggregator struct {
	mu     sync.Mutex
	videos []domain.VideoOutcome
	emails map[string]*emailEntry
	seq    int
}

type emailEntry struct {
	record  domain.EmailRecord
	sources map[string]int // video ID -> enumeration order
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		videos: make([]domain.VideoOutcome, 0),
		emails: make(map[string]*emailEntry),
	}
}

// Record stores the outcome of one task and returns it normalized (video
// ID, order, watch URL and sorted addresses filled in). Emails are compared
// case-insensitively; the first video to report an address becomes its
// first source, later videos are added to its source set.
func (a *Aggregator) Record(task domain.VideoTask, outcome domain.VideoOutcome) domain.VideoOutcome {
	outcome.VideoID = task.ID
	outcome.Order = task.Order
	outcome.Emails = dedupeEmails(outcome.Emails)
	if outcome.URL == "" {
		outcome.URL = domain.WatchURL(task.ID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.videos = append(a.videos, outcome)

	for _, email := range outcome.Emails {
		entry, ok := a.emails[email]
		if !ok {
			a.seq++
			entry = &emailEntry{
				record: domain.EmailRecord{
					Email:          email,
					FirstVideoID:   task.ID,
					DiscoveryOrder: a.seq,
				},
				sources: make(map[string]int),
			}
			a.emails[email] = entry
		}

		entry.record.Count++
		if _, seen := entry.sources[task.ID]; !seen {
			entry.sources[task.ID] = task.Order
		}
	}
	return outcome
}

// RecordSuccess stores a fetched video and the addresses found in it.
func (a *Aggregator) RecordSuccess(task domain.VideoTask, md domain.VideoMetadata, emails []string) domain.VideoOutcome {
	return a.Record(task, domain.VideoOutcome{
		Title:          md.Title,
		Status:         domain.StatusSuccess,
		Emails:         emails,
		HasDescription: strings.TrimSpace(md.Description) != "",
	})
}

// RecordFailure stores a failed video. A canceled fetch is recorded as
// skipped.
func (a *Aggregator) RecordFailure(task domain.VideoTask, err error) domain.VideoOutcome {
	return a.Record(task, failureOutcome(task, err))
}

// Finalize returns a snapshot sorted by enumeration order. It does not
// modify the aggregator; calling it twice gives identical results.
func (a *Aggregator) Finalize() *domain.AggregateResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	videos := make([]domain.VideoOutcome, len(a.videos))
	for i, v := range a.videos {
		v.Emails = append([]string{}, v.Emails...)
		videos[i] = v
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Order < videos[j].Order
	})

	emails := make(map[string]domain.EmailRecord, len(a.emails))
	for key, entry := range a.emails {
		rec := entry.record
		rec.Sources = sortedSources(entry.sources)
		emails[key] = rec
	}

	return &domain.AggregateResult{
		Videos: videos,
		Emails: emails,
	}
}

func sortedSources(sources map[string]int) []string {
	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		oi, oj := sources[ids[i]], sources[ids[j]]
		if oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func dedupeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
