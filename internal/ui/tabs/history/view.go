package history

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/styles"
)

const (
	timeLayout     = "Jan 02 15:04:05"
	maxErrorLength = 40
)

// View renders the history tab.
func (m *Model) View() string {
	records := m.state.GetFetches()
	if len(records) == 0 {
		return m.renderEmpty()
	}

	cardWidth := max(m.width-6, 50)

	sections := []string{
		m.renderHeader(records),
		m.renderPeaksCard(cardWidth),
		m.renderFetchTable(records, cardWidth),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No fetches recorded yet."),
		styles.HelpStyle.Render("Every poll, refresh and widget render is logged here."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader(records []models.FetchRecord) string {
	failed := lo.CountBy(records, func(r models.FetchRecord) bool { return !r.Succeeded() })
	succeeded := len(records) - failed

	title := styles.TitleStyle.Render("History")
	summary := fmt.Sprintf("%s  %s  %s",
		styles.HelpStyle.Render(fmt.Sprintf("last %d fetches", len(records))),
		styles.SuccessTextStyle.Render(fmt.Sprintf("%d ok", succeeded)),
		styles.ErrorTextStyle.Render(fmt.Sprintf("%d failed", failed)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, summary, "")
}

// renderPeaksCard charts the highest recorded peak for each range.
func (m *Model) renderPeaksCard(cardWidth int) string {
	peaks := m.state.GetPeaks()

	var values []float64
	var labels []string
	for _, r := range models.AllRanges() {
		if peak, ok := peaks[r]; ok {
			values = append(values, peak)
			labels = append(labels, r.Label())
		}
	}

	icon := lipgloss.NewStyle().Foreground(styles.Peak).Render("▲")
	header := fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Highest Peak per Range"))

	body := styles.HelpStyle.Render("No successful fetches yet")
	if len(values) > 0 {
		body = components.RenderBarChart(values, labels, cardWidth-6)
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body),
	)
}

func (m *Model) renderFetchTable(records []models.FetchRecord, cardWidth int) string {
	rows := lo.Map(records, func(r models.FetchRecord, _ int) []string {
		return fetchRow(r)
	})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers("TIME", "RANGE", "GRANULARITY", "POINTS", "PEAK", "LATEST", "STATUS").
		Rows(rows...).
		Width(cardWidth - 6).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := styles.TableCellStyle
			if row == table.HeaderRow {
				return base.Bold(true).Foreground(styles.Primary)
			}
			if col == 6 && row >= 0 && row < len(records) && !records[row].Succeeded() {
				return base.Foreground(styles.Error)
			}
			return base
		})

	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	header := fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Fetch Log"))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, t.Render()),
	)
}

func fetchRow(r models.FetchRecord) []string {
	status := "ok"
	peak, latest := "-", "-"
	if r.Succeeded() {
		peak = styles.FormatWatts(r.PeakWatts)
		latest = styles.FormatWatts(r.LatestWatts)
	} else {
		status = truncate(r.Error, maxErrorLength)
	}

	return []string{
		r.Timestamp.Local().Format(timeLayout),
		r.Range.Label(),
		string(r.Granularity),
		strconv.Itoa(r.Used) + "/" + strconv.Itoa(r.Retrieved),
		peak,
		latest,
		status,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
