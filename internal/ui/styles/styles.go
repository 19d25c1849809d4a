// Package styles defines the visual styling for the application.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color definitions for the dashboard theme.
var (
	// Primary colors
	Primary = lipgloss.Color("205") // Pink
	Subtle  = lipgloss.Color("240") // Gray

	// Series colors
	Usage = lipgloss.Color("37")  // Sense teal
	Peak  = lipgloss.Color("208") // Orange

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow

	// Background colors
	BgDark = lipgloss.Color("235")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// ProgressLabelStyle styles progress bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(20)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// TableCellStyle styles table cells.
var TableCellStyle = lipgloss.NewStyle().
	Padding(0, 1)

// PeakStyle highlights peak readings.
var PeakStyle = lipgloss.NewStyle().
	Foreground(Peak).
	Bold(true)

// LatestStyle highlights the most recent reading.
var LatestStyle = lipgloss.NewStyle().
	Foreground(Usage).
	Bold(true)

// LoadLowStyle for readings under half the series peak.
var LoadLowStyle = lipgloss.NewStyle().
	Foreground(Success)

// LoadMediumStyle for readings between half and 80% of the peak.
var LoadMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// LoadHighStyle for readings above 80% of the peak.
var LoadHighStyle = lipgloss.NewStyle().
	Foreground(Error)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// GetLoadStyle returns the style for a reading given as a fraction of the peak.
func GetLoadStyle(fraction float64) lipgloss.Style {
	switch {
	case fraction > 0.8:
		return LoadHighStyle
	case fraction > 0.5:
		return LoadMediumStyle
	default:
		return LoadLowStyle
	}
}

// FormatWatts renders a reading the way the widget labels it.
func FormatWatts(w float64) string {
	if w >= 10000 {
		return fmt.Sprintf("%.1fkW", w/1000)
	}
	return fmt.Sprintf("%.0fW", w)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
