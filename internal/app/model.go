// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/sense-dashboard-tui/internal/services"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabUsage is the ID for the usage tab.
	TabUsage TabID = iota
	// TabHistory is the ID for the history tab.
	TabHistory
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabUsage:
		return "Usage"
	case TabHistory:
		return "History"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Refresh    key.Binding
	CycleRange key.Binding
	Help       key.Binding
	Quit       key.Binding
	Escape     key.Binding

	// Scrolling is handled by each tab's viewport; these are listed in help.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "usage")),
		Tab2:       key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "history")),
		Tab3:       key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "info")),
		NextTab:    key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab/→", "next tab")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab/←", "prev tab")),
		Refresh:    key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		CycleRange: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "next range")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close help")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.CycleRange, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3},
		{k.NextTab, k.PrevTab},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.CycleRange, k.Refresh, k.Help, k.Quit},
	}
}

// Styles holds the styles used by the application shell. Tab content uses
// the styles package directly.
type Styles struct {
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style

	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content   lipgloss.Style
	Toast     lipgloss.Style
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles builds the shell styles from the dashboard palette.
func DefaultStyles() Styles {
	toast := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Padding(0, 1)
	}

	return Styles{
		TabBar: lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).BorderForeground(styles.Subtle),
		ActiveTab:   lipgloss.NewStyle().Bold(true).Foreground(styles.Usage).Padding(0, 2),
		InactiveTab: lipgloss.NewStyle().Foreground(styles.TextMuted).Padding(0, 2),

		NotificationSuccess: toast(styles.Success),
		NotificationError:   toast(styles.Error).Bold(true),
		NotificationWarning: toast(styles.Warning),
		NotificationInfo:    toast(styles.Usage),

		Content:   lipgloss.NewStyle().Padding(1, 2),
		Toast:     styles.ToastStyle,
		Title:     lipgloss.NewStyle().Bold(true).Foreground(styles.Usage),
		Subtle:    lipgloss.NewStyle().Foreground(styles.TextMuted),
		Highlight: lipgloss.NewStyle().Foreground(styles.Usage),
	}
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	// Shared state
	state    *State
	services *services.Manager
	commands *Commands
	keymap   KeyMap
	styles   Styles

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Service subscription, fixed at construction so Close may run on
	// another goroutine.
	events    chan services.ServiceEvent
	closeOnce sync.Once
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	state := NewState()
	if mgr != nil {
		state.SetConfig(mgr.Config())
		state.SetRange(mgr.Range())
	}

	m := &Model{
		activeTab: TabUsage,
		tabNames:  []string{"Usage", "History", "Info"},
		tabs:      make([]Tab, 3), // Placeholder - tabs will be set externally
		state:     state,
		services:  mgr,
		commands:  NewCommands(mgr),
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
	if mgr != nil {
		m.events = mgr.Subscribe()
	}

	return m
}

// Close unsubscribes the model from service events. It is safe to call more
// than once and from any goroutine.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		if m.services != nil && m.events != nil {
			m.services.Unsubscribe(m.events)
		}
	})
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Fetching usage...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.commands.DefaultTick(),
	}

	if m.services != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.events), loadInitialData(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg, tea.KeyMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		cmds = append(cmds, m.handleTick())
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case UsageUpdatedMsg:
		m.handleUsageUpdated(msg)
	case UsageErrorMsg:
		cmds = append(cmds, m.handleUsageError(msg)...)
	case FetchLogLoadedMsg:
		cmds = append(cmds, m.handleFetchLogLoaded(msg)...)
	case LoginStateMsg:
		m.state.SetLoggedIn(msg.LoggedIn)
	case RangeChangedMsg:
		cmds = append(cmds, m.handleRangeChanged(msg)...)
	case AddNotificationMsg:
		cmds = append(cmds, m.handleAddNotification(msg)...)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case StartLoadingMsg:
		m.handleStartLoading(msg)
	case RefreshMsg:
		cmds = append(cmds, m.handleRefresh(msg)...)
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

func (m *Model) handleTick() tea.Cmd {
	m.state.ClearExpiredNotifications()
	return m.commands.DefaultTick()
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.events != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.events))
	}
	return cmds
}

func (m *Model) finishLoading(resource string) {
	m.state.SetLoading("initial", false)
	m.state.SetLoading(resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleUsageUpdated(msg UsageUpdatedMsg) {
	m.state.SetPlot(msg.Plot)
	m.finishLoading("usage")
}

func (m *Model) handleUsageError(msg UsageErrorMsg) []tea.Cmd {
	m.finishLoading("usage")
	if msg.Error == nil {
		return nil
	}
	m.state.SetLastError(msg.Error.Error())

	switch {
	case errors.Is(msg.Error, services.ErrLoginRequired):
		return []tea.Cmd{m.commands.NotifyWarning("Not logged in: run `sdt login`")}
	case errors.Is(msg.Error, services.ErrTokenRejected):
		return []tea.Cmd{m.commands.NotifyWarning("Sense rejected the stored token: run `sdt login`")}
	default:
		return []tea.Cmd{m.commands.NotifyError(fmt.Sprintf("Failed to fetch usage: %v", msg.Error))}
	}
}

func (m *Model) handleFetchLogLoaded(msg FetchLogLoadedMsg) []tea.Cmd {
	m.state.SetLoading("history", false)
	if msg.Error != nil {
		return []tea.Cmd{m.commands.NotifyError(fmt.Sprintf("Failed to load fetch log: %v", msg.Error))}
	}
	m.state.SetFetchLog(msg.Records, msg.Peaks)
	return nil
}

func (m *Model) handleRangeChanged(msg RangeChangedMsg) []tea.Cmd {
	if msg.Error != nil {
		return []tea.Cmd{m.commands.NotifyError(fmt.Sprintf("Failed to switch range: %v", msg.Error))}
	}
	m.state.SetRange(msg.Range)
	m.state.SetLoading("usage", true)
	m.state.SetLoadingNotification(fmt.Sprintf("Fetching past %s...", msg.Range.Label()))
	return nil
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	var cmds []tea.Cmd
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		cmds = append(cmds, m.commands.ClearNotification(id, msg.Duration))
	}
	return cmds
}

func (m *Model) handleStartLoading(msg StartLoadingMsg) {
	m.state.SetLoading(msg.Resource, true)
	m.state.SetLoadingNotification("Refreshing...")
}

func (m *Model) handleRefresh(msg RefreshMsg) []tea.Cmd {
	if m.services == nil {
		return nil
	}

	switch msg.Resource {
	case "all":
		return []tea.Cmd{m.commands.RefreshUsage(), m.commands.LoadFetchLog()}
	case "usage":
		return []tea.Cmd{m.commands.RefreshUsage()}
	case "history":
		m.state.SetLoading("history", true)
		return []tea.Cmd{m.commands.LoadFetchLog()}
	}
	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := m.height - 5
	contentHeight = max(0, contentHeight)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	// Global keybindings (work regardless of tab)
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m.commands.Quit()

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil

	case key.Matches(msg, m.keymap.Tab1):
		return m.switchTab(TabUsage)

	case key.Matches(msg, m.keymap.Tab2):
		return m.switchTab(TabHistory)

	case key.Matches(msg, m.keymap.Tab3):
		return m.switchTab(TabInfo)

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp {
			return m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))
		}
		return nil

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp {
			return m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))
		}
		return nil

	case key.Matches(msg, m.keymap.CycleRange):
		return m.commands.CycleRange()

	case key.Matches(msg, m.keymap.Refresh):
		return tea.Batch(m.commands.RefreshUsage(), m.commands.LoadFetchLog())

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil
		}
	}

	// Let the tab handle other keys
	return nil
}

// switchTab activates a tab and lets it know it became visible.
func (m *Model) switchTab(tab TabID) tea.Cmd {
	m.activeTab = tab
	m.updateTabSizes()
	return func() tea.Msg { return TabSwitchMsg{Tab: tab} }
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.UsageUpdatedEvent:
		m.handleUsageUpdated(UsageUpdatedMsg(e))
		var cmds []tea.Cmd
		cmds = append(cmds, func() tea.Msg { return UsageUpdatedMsg(e) })
		if cmd := m.commands.LoadFetchLog(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return tea.Batch(cmds...)

	case services.LoginChangedEvent:
		m.state.SetLoggedIn(e.LoggedIn)
		if e.LoggedIn {
			return m.commands.NotifySuccess("Logged in to Sense")
		}
		return m.commands.NotifyWarning("Logged out of Sense")

	case services.ConfigChangedEvent:
		m.state.SetConfig(e.Config)
		m.state.SetRange(e.Config.Range)
		return m.commands.NotifyInfo("Configuration reloaded")

	case services.ErrorEvent:
		if e.Service == "usage" {
			cmds := m.handleUsageError(UsageErrorMsg{Error: e.Error})
			return tea.Batch(append(cmds, m.commands.LoadFetchLog())...)
		}
		return m.commands.NotifyError(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	frame := strings.Split(b.String(), "\n")
	for len(frame) < m.height {
		frame = append(frame, "")
	}

	if m.showHelp {
		panel := m.renderHelp()
		x := (m.width - lipgloss.Width(panel)) / 2
		y := (m.height - lipgloss.Height(panel)) / 2
		frame = overlayAt(frame, panel, x, y)
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
		frame = overlayAt(frame, stack, m.width-lipgloss.Width(stack)-2, 2)
	}

	return strings.Join(frame, "\n")
}

// overlayAt draws block over frame with its top-left corner at column x,
// row y. Cells under the block are replaced; the rest of each line is kept.
func overlayAt(frame []string, block string, x, y int) []string {
	x = max(x, 0)
	y = max(y, 0)
	width := lipgloss.Width(block)

	for i, line := range strings.Split(block, "\n") {
		row := y + i
		if row >= len(frame) {
			break
		}

		base := frame[row]
		left := ansi.Truncate(base, x, "")
		if pad := x - lipgloss.Width(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		frame[row] = left + line + ansi.TruncateLeft(base, x+width, "")
	}

	return frame
}

func (m *Model) renderNavbar() string {
	tabs := make([]string, 0, len(m.tabNames))
	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	if r := m.state.GetRange(); r != "" {
		badge := m.styles.Highlight.Render("Past " + r.Label())
		inner := m.width - m.styles.TabBar.GetHorizontalFrameSize()
		if gap := inner - lipgloss.Width(bar) - lipgloss.Width(badge); gap > 0 {
			bar += strings.Repeat(" ", gap) + badge
		}
	}

	return m.styles.TabBar.Width(m.width).Render(bar)
}

var notificationPrefixes = map[NotificationType]string{
	NotificationSuccess: "[OK]",
	NotificationError:   "[ERR]",
	NotificationWarning: "[WARN]",
	NotificationInfo:    "[INFO]",
}

func (m *Model) notificationStyle(t NotificationType) lipgloss.Style {
	switch t {
	case NotificationSuccess:
		return m.styles.NotificationSuccess
	case NotificationError:
		return m.styles.NotificationError
	case NotificationWarning:
		return m.styles.NotificationWarning
	default:
		return m.styles.NotificationInfo
	}
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	toasts := make([]string, 0, len(notifications))

	for _, n := range notifications {
		prefix := notificationPrefixes[n.Type]
		if n.Type == NotificationLoading {
			prefix = m.spinner.View()
		}
		content := m.notificationStyle(n.Type).Render(prefix + " " + n.Message)
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

// renderHelp builds the help panel from the key map plus the active tab's
// own bindings.
func (m *Model) renderHelp() string {
	groups := m.keymap.FullHelp()
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		if tabHelp := m.tabs[m.activeTab].ShortHelp(); len(tabHelp) > 0 {
			groups = append(groups, tabHelp)
		}
	}

	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = m.styles.Highlight
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	h.Styles.FullSeparator = m.styles.Subtle

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("Keyboard Shortcuts"),
		"",
		h.FullHelpView(groups),
		"",
		m.styles.Subtle.Render("Press ? or Esc to close"),
	)
	return styles.HelpPanelStyle.Render(content)
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		m.tabNames[m.activeTab],
		m.styles.Subtle.Render("This tab is not yet implemented."),
	)
	return m.styles.Content.Render(content)
}
