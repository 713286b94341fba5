// internal/adapters/output/table_test.go
package output

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailscout/internal/core/domain"
)

func TestWriteSummary(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	err := WriteSummary(&buf, sampleResult(), []string{"emails_youtube.json", "emails_youtube.csv"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "mailscout results")
	assert.Contains(t, out, "https://www.youtube.com/@show/videos")
	assert.Contains(t, out, "0.75 videos/second")
	assert.Contains(t, out, "Videos processed")
	assert.Contains(t, out, "Distinct emails")
	assert.Contains(t, out, "not_found")
	assert.Contains(t, out, "   - x@y.com\n   - z@y.com")
	assert.Contains(t, out, domain.WatchURL("v3")+" -> x@y.com, z@y.com")
	assert.NotContains(t, out, domain.WatchURL("v2")+" ->")
	assert.Contains(t, out, "emails_youtube.csv")
	assert.NotContains(t, out, "No emails found")
}

func TestWriteSummary_NoEmails(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	result := &domain.AggregateResult{
		Videos: []domain.VideoOutcome{{VideoID: "v1", Status: domain.StatusSuccess, Emails: []string{}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, result, nil))

	out := buf.String()
	assert.Contains(t, out, "No emails found")
	assert.Contains(t, out, "Try with another YouTube channel")
	assert.NotContains(t, out, "Results saved to")
	assert.NotContains(t, out, "Videos with emails")
	assert.NotContains(t, out, "videos/second")
}
