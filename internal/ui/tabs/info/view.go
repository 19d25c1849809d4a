package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/sense-dashboard-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderAccountCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and application information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderConfigCard renders the active configuration.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))

	cfg := m.state.GetConfig()
	if cfg == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	} else {
		rows = append(rows, configRows(cfg)...)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func configRows(cfg *config.Config) []string {
	envPath := cfg.EnvPath
	if envPath == "" {
		envPath = "(none found, using environment)"
	}
	logPath := cfg.LogPath
	if logPath == "" {
		logPath = "(stderr)"
	}
	alert := "off"
	if cfg.PeakAlertWatts > 0 {
		alert = styles.FormatWatts(cfg.PeakAlertWatts)
	}

	return []string{
		renderRow(".env File", envPath),
		renderRow("Database", cfg.DatabasePath),
		renderRow("Log File", logPath),
		renderRow("API Base URL", cfg.BaseURL),
		renderRow("Widget Server", cfg.ListenAddr),
		renderRow("SSH Server", cfg.SSHAddr),
		renderRow("Widget Theme", cfg.Theme),
		renderRow("Default Range", cfg.Range.Label()),
		renderRow("Poll Interval", cfg.RefreshInterval.String()),
		renderRow("HTTP Timeout", cfg.HTTPTimeout.String()),
		renderRow("Peak Alert", alert),
		renderRow("Debug Logging", fmt.Sprintf("%t", cfg.Debug)),
	}
}

// renderAccountCard renders the credential state.
func (m *Model) renderAccountCard() string {
	status := styles.WarningTextStyle.Render("not logged in (run `sdt login`)")
	if m.state.IsLoggedIn() {
		status = styles.SuccessTextStyle.Render("token stored in OS keychain")
	}

	rows := []string{
		styles.CardTitleStyle.Render("Sense Account"),
		renderRow("Status", status),
		renderRow("Polling", m.state.GetRange().Label()),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Sense Dashboard TUI"))

	rows = append(rows, renderRow("Version", version.GetVersion()))
	rows = append(rows, renderRow("Build Date", version.GetDate()))
	rows = append(rows, renderRow("Git Commit", version.GetCommit()))
	rows = append(rows, renderRow("Go Version", runtime.Version()))
	rows = append(rows, renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
