// Package monitor provides an interactive terminal view of a running engine:
// it ticks the engine, plays sounds from hotkeys and shows which requests
// hold a channel.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
	"github.com/zjrosen/partymix/internal/log"
	"github.com/zjrosen/partymix/internal/ui/styles"
)

// DefaultTickInterval is how often the engine is updated.
const DefaultTickInterval = 20 * time.Millisecond

const defaultHistory = 50

// TickMsg triggers an engine update.
type TickMsg time.Time

// ChangesMsg carries definition files reported by the watcher.
type ChangesMsg struct {
	Paths []string
}

type keyMap struct {
	Play    key.Binding
	Pause   key.Binding
	Mute    key.Binding
	Stop    key.Binding
	Louder  key.Binding
	Quieter key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Play:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "play")),
	Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Mute:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
	Stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Louder:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "volume")),
	Quieter: key.NewBinding(key.WithKeys("-")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Pause, k.Mute, k.Stop, k.Louder, k.Quit}
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the engine time source. The default counts milliseconds
// since New.
func WithClock(clock func() domain.WorldTime) Option {
	return func(m *Model) { m.clock = clock }
}

// WithTickInterval sets how often the engine is updated.
func WithTickInterval(d time.Duration) Option {
	return func(m *Model) { m.interval = d }
}

// WithChanges reloads definitions through reload whenever changes delivers
// a batch of paths.
func WithChanges(changes <-chan []string, reload func(paths []string) error) Option {
	return func(m *Model) {
		m.changes = changes
		m.reload = reload
	}
}

// WithHistory sets how many transitions the event log keeps.
func WithHistory(n int) Option {
	return func(m *Model) { m.history = max(n, 1) }
}

// WithReports passes every tick report to fn, empty ones included.
func WithReports(fn func(engine.TickReport)) Option {
	return func(m *Model) { m.onReport = fn }
}

// Model holds the monitor view state.
type Model struct {
	engine   *engine.Engine
	clock    func() domain.WorldTime
	interval time.Duration
	changes  <-chan []string
	reload   func([]string) error
	history  int
	onReport func(engine.TickReport)

	ids    []domain.SoundID
	events []engine.Transition
	status string
	err    error

	// log scrolls the event history. It is a pointer so scroll state
	// survives the value-receiver View.
	log  *viewport.Model
	help help.Model

	width  int
	height int
}

// New creates a monitor driving e.
func New(e *engine.Engine, opts ...Option) Model {
	start := time.Now()
	m := Model{
		engine:   e,
		clock:    func() domain.WorldTime { return domain.WorldTime(time.Since(start).Milliseconds()) },
		interval: DefaultTickInterval,
		history:  defaultHistory,
		ids:      e.Bank().IDs(),
		help:     help.New(),
	}
	vp := viewport.New(0, 0)
	m.log = &vp
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the tick loop and the watcher subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForChanges())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) waitForChanges() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		paths, ok := <-changes
		if !ok {
			return nil
		}
		return ChangesMsg{Paths: paths}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m = m.step()
		return m, m.tick()

	case ChangesMsg:
		if m.reload != nil {
			m.err = m.reload(msg.Paths)
		}
		m.ids = m.engine.Bank().IDs()
		m.status = fmt.Sprintf("reloaded %d file(s)", len(msg.Paths))
		return m, m.waitForChanges()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// step runs one engine update and records what changed. An aborted tick
// still reports the voices it reaped.
func (m Model) step() Model {
	report, err := m.engine.Update(m.clock())
	if err != nil {
		m.err = err
	}
	if m.onReport != nil {
		m.onReport(report)
	}
	if report.Empty() {
		return m
	}
	m.events = append(m.events, report.Transitions...)
	if over := len(m.events) - m.history; over > 0 {
		m.events = append([]engine.Transition(nil), m.events[over:]...)
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Play):
		m = m.play(int(msg.String()[0] - '1'))
	case key.Matches(msg, keys.Pause):
		m.engine.Pause(!m.engine.Paused())
	case key.Matches(msg, keys.Mute):
		m.engine.Mute(!m.engine.Muted())
	case key.Matches(msg, keys.Stop):
		m.engine.StopAll()
		m.status = "stopped all"
	case key.Matches(msg, keys.Louder):
		m.engine.SetVolume(m.engine.Volume() + 0.1)
	case key.Matches(msg, keys.Quieter):
		m.engine.SetVolume(m.engine.Volume() - 0.1)
	default:
		// Everything else scrolls the event log.
		vp, cmd := m.log.Update(msg)
		*m.log = vp
		return m, cmd
	}
	return m, nil
}

func (m Model) play(n int) Model {
	if n >= len(m.ids) {
		return m
	}
	id := m.ids[n]
	if _, err := m.engine.PlaySound(id); err != nil {
		log.ErrorErr(log.CatUI, "Play failed", err, "id", id)
		m.err = err
		return m
	}
	m.err = nil
	m.status = "queued " + m.name(id)
	return m
}

func (m Model) name(id domain.SoundID) string {
	if s, ok := m.engine.Bank().Sound(id); ok && s.Definition().Name != "" {
		return s.Definition().Name
	}
	return fmt.Sprintf("#%d", id)
}

// View renders the voices, the hotkeys and the event log.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	leftW := m.width * 3 / 5
	rightW := m.width - leftW
	topH := max((m.height-1)/2, 3)
	bottomH := max(m.height-1-topH, 3)

	playing := m.engine.Playing()
	voices := styles.RenderPanel(m.renderVoices(playing, leftW-2), "Voices",
		fmt.Sprintf("%d/%d", len(playing), m.engine.Channels()), leftW, topH, true)
	sounds := styles.RenderPanel(m.renderSounds(rightW-2), "Sounds", "", rightW, topH, false)
	events := styles.RenderPanel(m.renderLog(m.width-2, bottomH-2), "Events",
		m.logStatus(), m.width, bottomH, false)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, voices, sounds),
		events,
		m.renderFooter(),
	)
}

func (m Model) renderVoices(playing []domain.PlayingSound, width int) string {
	if len(playing) == 0 {
		return styles.MutedStyle.Render("silence")
	}
	var top domain.Priority
	for _, id := range m.ids {
		if p, err := m.engine.Bank().Priority(id); err == nil && p > top {
			top = p
		}
	}

	lines := make([]string, 0, len(playing))
	// Highest rank first.
	for i := len(playing) - 1; i >= 0; i-- {
		s := playing[i]
		p, _ := m.engine.Bank().Priority(s.SoundID)
		line := fmt.Sprintf("%2d v%-2d %-16s %-5s %s",
			s.ChannelID, s.Voice, styles.TruncateString(m.name(s.SoundID), 16),
			styles.PriorityBar(p, top, 5), styles.FormatTime(s.StartTime))
		lines = append(lines, styles.TruncateString(line, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSounds(width int) string {
	if len(m.ids) == 0 {
		return styles.MutedStyle.Render("no sounds loaded")
	}
	var lines []string
	for i, id := range m.ids {
		if i == 9 {
			lines = append(lines, styles.MutedStyle.Render(fmt.Sprintf("+%d more", len(m.ids)-9)))
			break
		}
		p, _ := m.engine.Bank().Priority(id)
		line := fmt.Sprintf("%d %-16s p%g", i+1, styles.TruncateString(m.name(id), 16), p)
		lines = append(lines, styles.TruncateString(line, width))
	}
	return strings.Join(lines, "\n")
}

// renderLog sizes the event viewport and follows new events unless the
// user has scrolled up.
func (m Model) renderLog(width, height int) string {
	if len(m.events) == 0 {
		return styles.MutedStyle.Render("no events yet")
	}
	m.log.Width = max(width, 1)
	m.log.Height = max(height, 1)
	wasAtBottom := m.log.AtBottom()
	m.log.SetContent(m.renderEvents(width))
	if wasAtBottom {
		m.log.GotoBottom()
	}
	return m.log.View()
}

func (m Model) logStatus() string {
	status := styles.FormatTime(m.engine.Now())
	if len(m.events) > 0 && !m.log.AtBottom() {
		status = fmt.Sprintf("%d%% %s", int(m.log.ScrollPercent()*100), status)
	}
	return status
}

func (m Model) renderEvents(width int) string {
	lines := make([]string, 0, len(m.events))
	for _, t := range m.events {
		line := fmt.Sprintf("%s %-16s %s", styles.FormatTime(t.Sound.StartTime),
			styles.TruncateString(m.name(t.Sound.SoundID), 16), styles.StateStyle(t.To))
		if t.Sample != "" {
			line += " " + styles.MutedStyle.Render(t.Sample)
		}
		if t.Err != nil {
			line += " " + styles.ErrorStyle.Render(t.Err.Error())
		}
		lines = append(lines, styles.TruncateString(line, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	parts := []string{styles.FormatVolume(m.engine.Volume(), m.engine.Muted())}
	if m.engine.Paused() {
		parts = append(parts, "paused")
	}
	switch {
	case m.err != nil:
		parts = append(parts, styles.ErrorStyle.Render(m.err.Error()))
	case m.status != "":
		parts = append(parts, m.status)
	}
	return styles.TruncateString(strings.Join(parts, "  ")+"  "+m.help.ShortHelpView(keys.ShortHelp()), m.width)
}

// SetSize updates the view dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}
