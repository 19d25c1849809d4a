package history

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/sense-dashboard-tui/internal/app"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

func seededState() *app.State {
	state := app.NewState()
	state.SetLoading("initial", false)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	state.SetFetchLog([]models.FetchRecord{
		{
			ID:          "b",
			Timestamp:   now,
			Range:       models.RangeDay,
			Granularity: models.GranularityMinute,
			Frames:      1440,
			Retrieved:   1440,
			Used:        1400,
			PeakWatts:   4200,
			LatestWatts: 380,
		},
		{
			ID:          "a",
			Timestamp:   now.Add(-time.Minute),
			Range:       models.RangeHour,
			Granularity: models.GranularitySecond,
			Frames:      4500,
			Error:       "sense api error: status 503",
		},
	}, map[models.TimeRange]float64{
		models.RangeDay:  4200,
		models.RangeHour: 2100,
	})
	return state
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should not return a command")
	}
}

func TestView_Empty(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 24)

	if !strings.Contains(m.View(), "No fetches recorded yet") {
		t.Error("empty history should say so")
	}
}

func TestView_WithData(t *testing.T) {
	m := New(seededState())
	m.SetSize(140, 60)

	view := m.View()
	for _, want := range []string{"2 fetches", "1 ok", "1 failed", "Highest Peak per Range", "4200W", "Fetch Log", "1400/1440"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestUpdate_TabSwitchRequestsReload(t *testing.T) {
	m := New(app.NewState())

	_, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabHistory})
	if cmd == nil {
		t.Fatal("switching to history should request a reload")
	}
	msg := cmd()
	refresh, ok := msg.(app.RefreshMsg)
	if !ok {
		t.Fatalf("expected RefreshMsg, got %T", msg)
	}
	if refresh.Resource != "history" {
		t.Errorf("Resource = %q, want history", refresh.Resource)
	}

	_, cmd = m.Update(app.TabSwitchMsg{Tab: app.TabInfo})
	if cmd != nil {
		if _, ok := cmd().(app.RefreshMsg); ok {
			t.Error("switching to another tab should not reload history")
		}
	}
}

func TestUpdate_Keys(t *testing.T) {
	m := New(seededState())
	m.SetSize(80, 10)
	_ = m.View()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if updated == nil {
		t.Error("Update returned nil model")
	}
}

func TestFetchRow(t *testing.T) {
	ok := fetchRow(models.FetchRecord{
		Range:       models.RangeWeek,
		Granularity: models.GranularityMinute,
		Retrieved:   10,
		Used:        8,
		PeakWatts:   900,
		LatestWatts: 120,
	})
	if ok[1] != "Week" || ok[3] != "8/10" || ok[4] != "900W" || ok[6] != "ok" {
		t.Errorf("unexpected row %v", ok)
	}

	failed := fetchRow(models.FetchRecord{Range: models.RangeHour, Error: strings.Repeat("x", 60)})
	if failed[4] != "-" {
		t.Errorf("failed fetch should not show a peak, got %q", failed[4])
	}
	if n := len([]rune(failed[6])); n != maxErrorLength {
		t.Errorf("status length = %d, want %d", n, maxErrorLength)
	}
}

func TestHelp(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
