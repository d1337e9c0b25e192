package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestRenderPanel_Basic(t *testing.T) {
	result := RenderPanel("content", "Voices", "", 20, 5, false)

	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╮", "missing top-right corner")
	require.Contains(t, result, "╰", "missing bottom-left corner")
	require.Contains(t, result, "╯", "missing bottom-right corner")

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 5)
	require.Contains(t, lines[0], "Voices")
	require.Contains(t, lines[1], "content")
}

func TestRenderPanel_LinesMatchWidth(t *testing.T) {
	result := RenderPanel("a\nlonger line", "Voices", "3/16", 30, 6, true)

	for i, line := range strings.Split(result, "\n") {
		require.Equal(t, 30, lipgloss.Width(line), "line %d width", i)
	}
}

func TestRenderPanel_TitleAndStatus(t *testing.T) {
	result := RenderPanel("", "Voices", "3/16", 30, 3, false)
	top := strings.Split(result, "\n")[0]

	require.Contains(t, top, "Voices")
	require.Contains(t, top, "3/16")
	require.Less(t, strings.Index(top, "Voices"), strings.Index(top, "3/16"))
}

func TestRenderPanel_NarrowDropsStatusThenTruncates(t *testing.T) {
	top := strings.Split(RenderPanel("", "Voices", "3/16", 14, 3, false), "\n")[0]
	require.Contains(t, top, "Voices")
	require.NotContains(t, top, "3/16")
	require.Equal(t, 14, lipgloss.Width(top))

	top = strings.Split(RenderPanel("", "A Very Long Panel Title", "", 14, 3, false), "\n")[0]
	require.Contains(t, top, "...")
	require.Equal(t, 14, lipgloss.Width(top))
}

func TestRenderPanel_TooSmall(t *testing.T) {
	result := RenderPanel("x", "Voices", "", 2, 2, false)
	lines := strings.Split(result, "\n")
	require.Len(t, lines, 3)
	require.NotContains(t, lines[0], "Voices")
}
