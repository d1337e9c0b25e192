package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderPanel draws content inside a rounded border of the given outer size.
// title is embedded on the left of the top border and status on the right;
// pass "" to omit either. The border uses BorderFocusColor when focused.
func RenderPanel(content, title, status string, width, height int, focused bool) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = BorderFocusColor
	}
	border := lipgloss.NewStyle().Foreground(borderColor)

	inner := max(width-2, 1)
	rows := max(height-2, 1)

	body := lipgloss.NewStyle().Width(inner).Height(rows).Render(content)
	lines := strings.Split(body, "\n")

	var b strings.Builder
	b.WriteString(topBorder(title, status, inner, border))
	for i := range rows {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if w := lipgloss.Width(line); w < inner {
			line += strings.Repeat(" ", inner-w)
		}
		b.WriteString("\n")
		b.WriteString(border.Render(borderVertical) + line + border.Render(borderVertical))
	}
	b.WriteString("\n")
	b.WriteString(border.Render(borderBottomLeft + strings.Repeat(borderHorizontal, inner) + borderBottomRight))
	return b.String()
}

// topBorder builds ╭─ title ───── status ─╮. The status is dropped first
// when space runs out, then the title is truncated.
func topBorder(title, status string, inner int, border lipgloss.Style) string {
	plain := border.Render(borderTopLeft + strings.Repeat(borderHorizontal, inner) + borderTopRight)
	if title == "" && status == "" {
		return plain
	}

	// "─ " + title + " " + dashes + " " + status + " ─"
	need := func(t, s string) int {
		n := 1
		if t != "" {
			n += 3 + lipgloss.Width(t)
		}
		if s != "" {
			n += 3 + lipgloss.Width(s)
		}
		return n
	}
	if need(title, status) > inner {
		status = ""
	}
	if title != "" && need(title, "") > inner {
		title = TruncateString(title, inner-4)
	}
	if title == "" && status == "" {
		return plain
	}

	var b strings.Builder
	b.WriteString(border.Render(borderTopLeft))
	if title != "" {
		b.WriteString(border.Render(borderHorizontal + " "))
		b.WriteString(TitleStyle.Render(title))
		b.WriteString(border.Render(" "))
	}
	b.WriteString(border.Render(strings.Repeat(borderHorizontal, max(inner-need(title, status)+1, 1))))
	if status != "" {
		b.WriteString(border.Render(" "))
		b.WriteString(MutedStyle.Render(status))
		b.WriteString(border.Render(" " + borderHorizontal))
	}
	b.WriteString(border.Render(borderTopRight))
	return b.String()
}
