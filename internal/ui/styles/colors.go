// Package styles contains Lip Gloss style definitions.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

// Palette
var (
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6EDF3"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#656D76", Dark: "#7D8590"}
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#30363D"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#8250DF", Dark: "#BC8CFF"}

	PlayingColor = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	PendingColor = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	EvictedColor = lipgloss.AdaptiveColor{Light: "#BC4C00", Dark: "#F0883E"}
	FailedColor  = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().Foreground(BorderFocusColor).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	TextStyle  = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	ErrorStyle = lipgloss.NewStyle().Foreground(FailedColor)
)

// StateColor returns the color a request state is drawn in.
func StateColor(s domain.RequestState) lipgloss.TerminalColor {
	switch s {
	case domain.StatePlaying:
		return PlayingColor
	case domain.StateRequested, domain.StateAssigned:
		return PendingColor
	case domain.StateEvicted, domain.StateSuperseded:
		return EvictedColor
	case domain.StateFailed:
		return FailedColor
	default:
		return TextMutedColor
	}
}

// StateStyle renders the name of a request state in its color.
func StateStyle(s domain.RequestState) string {
	return lipgloss.NewStyle().Foreground(StateColor(s)).Render(string(s))
}
