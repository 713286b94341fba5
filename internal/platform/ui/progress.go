// internal/platform/ui/progress.go
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"

	"mailscout/internal/core/domain"
	"mailscout/internal/core/ports"
)

// PTermProgress renders a progress bar over the videos of a run and prints
// a line for every video that yielded addresses.
type PTermProgress struct {
	mu  sync.Mutex
	out io.Writer
	bar *pterm.ProgressbarPrinter

	total      int
	done       int
	withEmails int
}

// NewProgress returns a pterm progress bar writing to out (stdout when
// nil), or a no-op when quiet is set.
func NewProgress(out io.Writer, quiet bool) ports.Progress {
	if quiet {
		return ports.NoopProgress{}
	}
	if out == nil {
		out = os.Stdout
	}
	return &PTermProgress{out: out}
}

// Start draws the bar.
func (p *PTermProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.withEmails = 0
	if total == 0 {
		return
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("Extracting emails").
		WithWriter(p.out).
		WithRemoveWhenDone(true).
		Start()
	if err == nil {
		p.bar = bar
	}
}

// Advance moves the bar by one video.
func (p *PTermProgress) Advance(o domain.VideoOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if len(o.Emails) > 0 {
		p.withEmails++
		fmt.Fprintf(p.out, "%s [%d/%d] %d email(s): %s\n",
			Style(o.Status).Sprint(Symbol(o.Status)), p.done, p.total, len(o.Emails), truncate(o.Title, 50))
		for _, e := range o.Emails {
			fmt.Fprintf(p.out, "    -> %s\n", e)
		}
	}

	if p.bar != nil {
		p.bar.UpdateTitle(fmt.Sprintf("Extracting emails (%d with emails)", p.withEmails))
		p.bar.Increment()
	}
}

// Stop removes the bar and prints the final count.
func (p *PTermProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
	if p.total > 0 {
		fmt.Fprintf(p.out, "%s %d/%d videos processed, %d with emails\n",
			Style(domain.StatusSuccess).Sprint(Symbol(domain.StatusSuccess)), p.done, p.total, p.withEmails)
	}
}
