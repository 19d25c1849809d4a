// Package usage provides the usage tab: the polled series as a chart with its
// peak and latest readings.
package usage

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/sense-dashboard-tui/internal/app"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the usage tab.
type keyMap struct {
	CycleRange key.Binding
	Refresh    key.Binding
	Up         key.Binding
	Down       key.Binding
}

// defaultKeyMap returns the default key bindings for the usage tab. Range and
// refresh are handled by the root model; they are listed here for help.
func defaultKeyMap() keyMap {
	return keyMap{
		CycleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "next range"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the usage tab state.
type Model struct {
	state    *app.State
	spinner  components.LoadingSpinner
	gauge    components.LoadGauge
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new usage tab.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		spinner:  components.NewSpinner("Fetching usage..."),
		gauge:    components.NewLoadGauge(),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.UsageUpdatedMsg:
		m.viewport.GotoTop()

	case app.RangeChangedMsg:
		if msg.Error == nil {
			m.spinner.SetLabel("Fetching past " + msg.Range.Label() + "...")
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Up, m.keys.Down) {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.CycleRange,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.CycleRange, m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
