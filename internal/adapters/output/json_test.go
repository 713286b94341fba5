// internal/adapters/output/json_test.go
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailscout/internal/core/domain"
)

func sampleResult() *domain.AggregateResult {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.AggregateResult{
		Metadata: domain.RunMetadata{
			RunID:      "run-42",
			ChannelURL: "https://www.youtube.com/@show/videos",
			StartedAt:  start,
			FinishedAt: start.Add(4 * time.Second),
			Duration:   4 * time.Second,
		},
		Videos: []domain.VideoOutcome{
			{VideoID: "v1", URL: domain.WatchURL("v1"), Order: 0, Status: domain.StatusSuccess, Emails: []string{"x@y.com"}, HasDescription: true},
			{VideoID: "v2", URL: domain.WatchURL("v2"), Order: 1, Status: domain.StatusFailed, Emails: []string{}, ErrorKind: domain.FetchNotFound, Error: "Video unavailable"},
			{VideoID: "v3", URL: domain.WatchURL("v3"), Order: 2, Status: domain.StatusSuccess, Emails: []string{"x@y.com", "z@y.com"}, HasDescription: true},
		},
		Emails: map[string]domain.EmailRecord{
			"x@y.com": {Email: "x@y.com", FirstVideoID: "v1", Sources: []string{"v1", "v3"}, Count: 2, DiscoveryOrder: 1},
			"z@y.com": {Email: "z@y.com", FirstVideoID: "v3", Sources: []string{"v3"}, Count: 1, DiscoveryOrder: 2},
		},
	}
}

func TestJSONExporter_Export(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out", "emails_youtube")
	exp := NewJSONExporter(prefix)

	require.NoError(t, exp.Export(sampleResult()))
	assert.Equal(t, prefix+".json", exp.Path())
	assert.Equal(t, "json", exp.Name())

	data, err := os.ReadFile(exp.Path())
	require.NoError(t, err)

	var doc struct {
		Metadata map[string]any `json:"metadata"`
		Stats    map[string]any `json:"stats"`
		Videos   []struct {
			VideoID   string   `json:"video_id"`
			Status    string   `json:"status"`
			Emails    []string `json:"emails"`
			ErrorKind string   `json:"error_kind"`
		} `json:"videos"`
		Emails []struct {
			Email   string   `json:"email"`
			Sources []string `json:"sources"`
		} `json:"emails"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "run-42", doc.Metadata["run_id"])
	assert.EqualValues(t, 3, doc.Stats["processed"])
	assert.EqualValues(t, 2, doc.Stats["distinct_emails"])

	require.Len(t, doc.Videos, 3)
	assert.Equal(t, "v1", doc.Videos[0].VideoID)
	assert.Equal(t, "failed", doc.Videos[1].Status)
	assert.Equal(t, "not_found", doc.Videos[1].ErrorKind)
	assert.Equal(t, []string{}, doc.Videos[1].Emails)

	require.Len(t, doc.Emails, 2)
	assert.Equal(t, "x@y.com", doc.Emails[0].Email)
	assert.Equal(t, []string{"v1", "v3"}, doc.Emails[0].Sources)
}

func TestJSONExporter_EmptyResult(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewJSONExporter("x").ExportToWriter(&domain.AggregateResult{}, &buf))

	assert.Contains(t, buf.String(), `"videos": []`)
	assert.Contains(t, buf.String(), `"emails": []`)
}

func TestJSONExporter_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewJSONExporter(filepath.Join(blocker, "sub", "out")).Export(sampleResult())

	assert.ErrorIs(t, err, domain.ErrExportFailed)
}

func TestCSVExporter_Export(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "emails")
	exp := NewCSVExporter(prefix)

	require.NoError(t, exp.Export(sampleResult()))
	assert.Equal(t, prefix+".csv", exp.Path())

	f, err := os.Open(exp.Path())
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"email", "first_source_video_id", "all_source_video_ids", "occurrence_count"},
		{"x@y.com", "v1", "v1;v3", "2"},
		{"z@y.com", "v3", "v3", "1"},
	}, rows)
}

func TestCSVExporter_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewCSVExporter("x").ExportToWriter(&domain.AggregateResult{}, &buf))

	assert.Equal(t, "email,first_source_video_id,all_source_video_ids,occurrence_count\n", buf.String())
}
