package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

// TruncateString truncates a string to fit within maxWidth, adding ellipsis if needed.
// Styled strings keep their escape sequences intact.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// FormatTime renders an engine timestamp as seconds.
func FormatTime(t domain.WorldTime) string {
	return fmt.Sprintf("%d.%03ds", t/1000, t%1000)
}

// FormatVolume renders the master volume as a percentage.
func FormatVolume(volume float64, muted bool) string {
	if muted {
		return "muted"
	}
	return fmt.Sprintf("vol %d%%", int(volume*100+0.5))
}

// PriorityBar renders p as a bar of up to width cells, scaled against top.
func PriorityBar(p, top domain.Priority, width int) string {
	if width < 1 || top <= 0 || p <= 0 {
		return ""
	}
	n := int(float32(p) / float32(top) * float32(width))
	return strings.Repeat("▮", min(max(n, 1), width))
}
