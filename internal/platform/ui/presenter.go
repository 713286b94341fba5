// internal/platform/ui/presenter.go
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// RunInfo is shown in the banner before a run starts.
type RunInfo struct {
	RunID      string
	Channel    string
	MaxVideos  int
	Workers    int
	Delay      time.Duration
	BatchSize  int
	BatchDelay time.Duration
	Enumerator string
	Fetcher    string
}

// RenderRunInfo returns the banner box as a string.
func RenderRunInfo(info RunInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Channel: %s\n", IconChannel, pterm.Cyan(info.Channel))
	fmt.Fprintf(&b, "%s Max videos: %d\n", IconVideos, info.MaxVideos)
	fmt.Fprintf(&b, "%s Workers: %d\n", IconWorkers, info.Workers)
	fmt.Fprintf(&b, "%s Delay: %s", IconTime, formatDuration(info.Delay))
	if info.BatchSize > 0 {
		fmt.Fprintf(&b, " (pause %s every %d requests)", formatDuration(info.BatchDelay), info.BatchSize)
	}
	fmt.Fprintf(&b, "\n   Backends: %s / %s\n", info.Enumerator, info.Fetcher)
	fmt.Fprintf(&b, "   Run: %s", info.RunID)

	return pterm.DefaultBox.
		WithTitle("mailscout").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		Sprint(b.String())
}

// PrintRunInfo writes the banner to w.
func PrintRunInfo(w io.Writer, info RunInfo) {
	fmt.Fprintln(w, RenderRunInfo(info))
	fmt.Fprintln(w, pterm.LightBlue(SeparatorHeavy))
}
