// internal/core/domain/result.go
package domain

import (
	"sort"
	"time"
)

// VideoStatus is the fetch status exported for every video.
type VideoStatus string

const (
	StatusSuccess VideoStatus = "success"
	StatusFailed  VideoStatus = "failed"
	StatusSkipped VideoStatus = "skipped"
)

// VideoOutcome is the per-video record of a run.
type VideoOutcome struct {
	VideoID        string         `json:"video_id"`
	URL            string         `json:"url"`
	Title          string         `json:"title,omitempty"`
	Order          int            `json:"order"`
	Status         VideoStatus    `json:"status"`
	Emails         []string       `json:"emails"`
	HasDescription bool           `json:"has_description"`
	ErrorKind      FetchErrorKind `json:"error_kind,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// OK reports whether the video was fetched.
func (v VideoOutcome) OK() bool {
	return v.Status == StatusSuccess
}

// EmailRecord is the canonical entry for one address. FirstVideoID is the
// video that reported the address first (by completion); Sources holds every
// distinct video that mentioned it, in enumeration order.
type EmailRecord struct {
	Email          string   `json:"email"`
	FirstVideoID   string   `json:"first_video_id"`
	Sources        []string `json:"sources"`
	Count          int      `json:"count"`
	DiscoveryOrder int      `json:"discovery_order"`
}

// RunMetadata describes a run.
type RunMetadata struct {
	RunID      string        `json:"run_id"`
	ChannelURL string        `json:"channel_url"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// RunStats are the counters shown in the final report.
type RunStats struct {
	Processed       int                    `json:"processed"`
	Succeeded       int                    `json:"succeeded"`
	Failed          int                    `json:"failed"`
	Skipped         int                    `json:"skipped"`
	WithDescription int                    `json:"with_description"`
	WithEmails      int                    `json:"with_emails"`
	TotalEmails     int                    `json:"total_emails"`
	DistinctEmails  int                    `json:"distinct_emails"`
	FailuresByKind  map[FetchErrorKind]int `json:"failures_by_kind,omitempty"`
}

// AggregateResult is the finalized output of a run. Videos is sorted by
// enumeration order; Emails is keyed by lower-cased address.
type AggregateResult struct {
	Metadata RunMetadata            `json:"metadata"`
	Videos   []VideoOutcome         `json:"videos"`
	Emails   map[string]EmailRecord `json:"-"`
}

// Stats computes the run counters.
func (r *AggregateResult) Stats() RunStats {
	stats := RunStats{
		Processed:      len(r.Videos),
		DistinctEmails: len(r.Emails),
	}

	for _, v := range r.Videos {
		switch v.Status {
		case StatusSuccess:
			stats.Succeeded++
		case StatusFailed:
			stats.Failed++
		case StatusSkipped:
			stats.Skipped++
		}
		if v.Status != StatusSuccess {
			if stats.FailuresByKind == nil {
				stats.FailuresByKind = make(map[FetchErrorKind]int)
			}
			stats.FailuresByKind[v.ErrorKind]++
		}
		if v.HasDescription {
			stats.WithDescription++
		}
		if len(v.Emails) > 0 {
			stats.WithEmails++
			stats.TotalEmails += len(v.Emails)
		}
	}

	return stats
}

// EmailList returns the email records sorted by address.
func (r *AggregateResult) EmailList() []EmailRecord {
	list := make([]EmailRecord, 0, len(r.Emails))
	for _, rec := range r.Emails {
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Email < list[j].Email
	})
	return list
}

// VideosWithEmails returns only the videos that yielded at least one address.
func (r *AggregateResult) VideosWithEmails() []VideoOutcome {
	out := make([]VideoOutcome, 0)
	for _, v := range r.Videos {
		if len(v.Emails) > 0 {
			out = append(out, v)
		}
	}
	return out
}
