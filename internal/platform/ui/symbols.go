// internal/platform/ui/symbols.go
package ui

import (
	"github.com/pterm/pterm"

	"mailscout/internal/core/domain"
)

// Symbol returns the Unicode mark shown for a video status.
func Symbol(s domain.VideoStatus) string {
	switch s {
	case domain.StatusSuccess:
		return "✓"
	case domain.StatusFailed:
		return "✗"
	case domain.StatusSkipped:
		return "⊘"
	default:
		return "?"
	}
}

// Style returns the color used for a video status.
func Style(s domain.VideoStatus) *pterm.Style {
	switch s {
	case domain.StatusSuccess:
		return pterm.NewStyle(pterm.FgGreen)
	case domain.StatusFailed:
		return pterm.NewStyle(pterm.FgRed)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// Icons
var (
	IconChannel = "📺"
	IconVideos  = "🎞"
	IconWorkers = "⚙️"
	IconTime    = "⏱"
	IconEmail   = "✉"
)

// SeparatorHeavy separates the banner from the run output.
var SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
