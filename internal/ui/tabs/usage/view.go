package usage

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/render"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/styles"
)

const timeLayout = "Jan 02 15:04"

// View renders the usage tab.
func (m *Model) View() string {
	plot := m.state.GetPlot()
	if plot == nil {
		if m.state.IsInitialLoading() {
			return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
		}
		return m.renderEmpty()
	}

	cardWidth := max(m.width-6, 40)

	sections := []string{
		m.renderTitle(plot),
		m.renderChartCard(plot, cardWidth),
		m.renderStatsCard(plot, cardWidth),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderEmpty() string {
	var rows []string
	rows = append(rows, styles.TitleStyle.Render("Sense Usage"), "")

	switch {
	case !m.state.IsLoggedIn():
		rows = append(rows,
			styles.WarningTextStyle.Render("Not logged in."),
			styles.HelpStyle.Render("Run `sdt login` in another terminal; the dashboard picks it up on the next poll."),
		)
	case m.state.GetLastError() != "":
		rows = append(rows,
			styles.ErrorTextStyle.Render("No plot data retrieved."),
			"",
			styles.HelpStyle.Render("Error: "+m.state.GetLastError()),
		)
	default:
		rows = append(rows, styles.HelpStyle.Render("Waiting for the first poll..."))
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderTitle(plot *models.PlotData) string {
	title := styles.TitleStyle.Render(plot.Title())

	updated := "never"
	if last := m.state.GetLastUpdated(); !last.IsZero() {
		updated = fmt.Sprintf("%s (%s)", last.Format("15:04:05"), sinceLabel(m.state.TimeSinceUpdate()))
	}
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%s granularity · updated %s",
		granularityOf(plot.Range), updated))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderChartCard(plot *models.PlotData, cardWidth int) string {
	chartWidth := max(cardWidth-14, 20)
	chartHeight := max(m.height/3, 5)

	caption := "watts"
	if !plot.StartTime.IsZero() && !plot.EndTime.IsZero() {
		caption = fmt.Sprintf("watts · %s – %s",
			plot.StartTime.Local().Format(timeLayout),
			plot.EndTime.Local().Format(timeLayout))
	}

	var body string
	if len(plot.Usage) < 2 {
		body = styles.HelpStyle.Render(fmt.Sprintf("Not enough samples to draw a curve (%d usable of %d).",
			len(plot.Usage), plot.Retrieved))
	} else {
		body = components.RenderUsageChart(plot.Usage, chartWidth, chartHeight, caption)
	}

	icon := lipgloss.NewStyle().Foreground(styles.Usage).Render("◈")
	header := fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Past "+plot.Range.Label()))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body),
	)
}

func (m *Model) renderStatsCard(plot *models.PlotData, cardWidth int) string {
	contentWidth := max(cardWidth-6, 30)
	peak := plot.Usage.Peak()
	latest := plot.Usage.Latest()
	scale := render.ScaleMax(peak)

	var rows []string
	rows = append(rows,
		fmt.Sprintf("%s %s    %s %s",
			styles.HelpStyle.Render("Peak"), styles.PeakStyle.Render(styles.FormatWatts(peak)),
			styles.HelpStyle.Render("Latest"), styles.LatestStyle.Render(styles.FormatWatts(latest)),
		),
		"",
		m.gauge.View(latest, scale, "Latest", contentWidth),
		m.gauge.View(peak, scale, "Peak", contentWidth),
		"",
		styles.HelpStyle.Render("Trend ")+components.RenderColoredSparkline(plot.Usage, contentWidth-6),
		"",
		styles.HelpStyle.Render(fmt.Sprintf("%d of %d samples used · scale %s",
			len(plot.Usage), plot.Retrieved, styles.FormatWatts(scale))),
	)

	if cfg := m.state.GetConfig(); cfg != nil && cfg.RefreshInterval > 0 {
		elapsed := m.state.TimeSinceUpdate()
		rows = append(rows, components.RenderRefreshBar(elapsed, cfg.RefreshInterval, "Next poll", contentWidth))
	}

	if errMsg := m.state.GetLastError(); errMsg != "" {
		rows = append(rows, "", styles.ErrorTextStyle.Render("Last poll failed: "+errMsg))
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func granularityOf(r models.TimeRange) string {
	q, err := r.Query()
	if err != nil {
		return "unknown"
	}
	return string(q.Granularity)
}

// sinceLabel formats a duration the way the header shows poll age.
func sinceLabel(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	return d.Truncate(time.Minute).String() + " ago"
}
