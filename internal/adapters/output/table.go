// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"mailscout/internal/core/domain"
)

// noEmailHint is printed when a run found nothing.
var noEmailHint = []string{
	"Videos on this channel don't have emails in descriptions",
	"Descriptions are not loading correctly",
	"Try with another YouTube channel",
}

// WriteSummary prints the final report: counters, the unique addresses and
// the files written.
func WriteSummary(w io.Writer, result *domain.AggregateResult, files []string) error {
	stats := result.Stats()
	md := result.Metadata

	fmt.Fprintf(w, "\n=== mailscout results ===\n")
	if md.ChannelURL != "" {
		fmt.Fprintf(w, "Channel: %s\n", md.ChannelURL)
	}
	if md.Duration > 0 {
		secs := md.Duration.Seconds()
		fmt.Fprintf(w, "Completed in %.2f seconds (%.2f videos/second)\n", secs, float64(stats.Processed)/secs)
	}

	data := pterm.TableData{
		{"Metric", "Count"},
		{"Videos processed", strconv.Itoa(stats.Processed)},
		{"Succeeded", strconv.Itoa(stats.Succeeded)},
		{"Failed", strconv.Itoa(stats.Failed)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
		{"With description", strconv.Itoa(stats.WithDescription)},
		{"With emails", strconv.Itoa(stats.WithEmails)},
		{"Emails found", strconv.Itoa(stats.TotalEmails)},
		{"Distinct emails", strconv.Itoa(stats.DistinctEmails)},
	}
	for _, kind := range []domain.FetchErrorKind{
		domain.FetchNotFound, domain.FetchRateLimited, domain.FetchNetwork, domain.FetchUnknown,
	} {
		if n := stats.FailuresByKind[kind]; n > 0 {
			data = append(data, []string{"  " + string(kind), strconv.Itoa(n)})
		}
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	fmt.Fprintln(w, table)

	if videos := result.VideosWithEmails(); len(videos) > 0 {
		fmt.Fprintf(w, "\nVideos with emails:\n")
		for _, v := range videos {
			fmt.Fprintf(w, "   %s -> %s\n", v.URL, strings.Join(v.Emails, ", "))
		}
	}

	emails := result.EmailList()
	if len(emails) > 0 {
		fmt.Fprintf(w, "\nUnique emails found:\n")
		for _, rec := range emails {
			fmt.Fprintf(w, "   - %s\n", rec.Email)
		}
	} else {
		fmt.Fprintf(w, "\n[!] No emails found. Possible causes:\n")
		for _, hint := range noEmailHint {
			fmt.Fprintf(w, "    - %s\n", hint)
		}
	}

	if len(files) > 0 {
		fmt.Fprintf(w, "\nResults saved to:\n")
		for _, f := range files {
			fmt.Fprintf(w, "   - %s\n", f)
		}
	}

	fmt.Fprintln(w)
	return nil
}
