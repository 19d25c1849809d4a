package info

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/sense-dashboard-tui/internal/app"
	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
}

func TestModel_Update(t *testing.T) {
	m := New(app.NewState())

	updated, _ := m.Update(nil)
	if updated == nil {
		t.Error("Update returned nil model")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
}

func TestModel_View_NoConfig(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 40)

	view := m.View()
	if !strings.Contains(view, "Configuration not loaded") {
		t.Error("View should report a missing config")
	}
	if !strings.Contains(view, "not logged in") {
		t.Error("View should show the login state")
	}
}

func TestModel_View(t *testing.T) {
	state := app.NewState()
	state.SetLoggedIn(true)
	state.SetConfig(&config.Config{
		DatabasePath:    "/tmp/sense.db",
		BaseURL:         "https://api.sense.com/apiservice/api/v1",
		ListenAddr:      ":8080",
		Theme:           config.ThemeDark,
		Range:           models.RangeDay,
		RefreshInterval: time.Minute,
		HTTPTimeout:     30 * time.Second,
		PeakAlertWatts:  5000,
	})
	m := New(state)
	m.SetSize(100, 80)

	view := m.View()
	for _, want := range []string{"/tmp/sense.db", ":8080", "Day", "1m0s", "5000W", "token stored", "Go Version"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
