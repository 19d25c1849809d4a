package app

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zalando/go-keyring"

	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/services"
)

// newTestManager builds a manager over a temp database and a mock keychain.
// Start is not called, so nothing polls the network.
func newTestManager(t *testing.T) *services.Manager {
	t.Helper()
	keyring.MockInit()
	cfg := &config.Config{
		DatabasePath:    filepath.Join(t.TempDir(), "test.db"),
		BaseURL:         "http://127.0.0.1:0",
		Range:           models.RangeHour,
		RefreshInterval: time.Hour,
		HTTPTimeout:     time.Second,
		Theme:           config.ThemeDark,
	}
	mgr, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestCommands_DefaultTick(t *testing.T) {
	cmds := NewCommands(nil)
	cmd := cmds.DefaultTick()
	if cmd == nil {
		t.Error("DefaultTick returned nil")
	}
}

func TestCommands_Notifications(t *testing.T) {
	cmds := NewCommands(nil)

	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
	}{
		{"Success", cmds.NotifySuccess, NotificationSuccess},
		{"Error", cmds.NotifyError, NotificationError},
		{"Warning", cmds.NotifyWarning, NotificationWarning},
		{"Info", cmds.NotifyInfo, NotificationInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.fn("msg")
			msg := cmd()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
		})
	}
}

func TestCommands_ClearNotification(t *testing.T) {
	cmds := NewCommands(nil)
	// Mock time.Tick or just check it returns a command
	cmd := cmds.ClearNotification("id", time.Millisecond)
	if cmd == nil {
		t.Error("ClearNotification returned nil")
	}
}

func TestCommands_Quit(t *testing.T) {
	cmds := NewCommands(nil)
	cmd := cmds.Quit()
	msg := cmd()
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("Expected QuitMsg, got %T", msg)
	}
}

func TestCommands_NilManager(t *testing.T) {
	cmds := NewCommands(nil)
	if cmds.LoadFetchLog() != nil {
		t.Error("LoadFetchLog without a manager should be nil")
	}
	if cmds.RefreshUsage() != nil {
		t.Error("RefreshUsage without a manager should be nil")
	}
	if cmds.CycleRange() != nil {
		t.Error("CycleRange without a manager should be nil")
	}
}

func TestCommands_LoadFetchLog(t *testing.T) {
	cmds := NewCommands(newTestManager(t))

	msg := cmds.LoadFetchLog()()
	loaded, ok := msg.(FetchLogLoadedMsg)
	if !ok {
		t.Fatalf("Expected FetchLogLoadedMsg, got %T", msg)
	}
	if loaded.Error != nil {
		t.Fatalf("unexpected error: %v", loaded.Error)
	}
	if len(loaded.Records) != 0 {
		t.Errorf("fresh database should have no fetches, got %d", len(loaded.Records))
	}
}

func TestCommands_CycleRange(t *testing.T) {
	mgr := newTestManager(t)
	cmds := NewCommands(mgr)

	msg := cmds.CycleRange()()
	changed, ok := msg.(RangeChangedMsg)
	if !ok {
		t.Fatalf("Expected RangeChangedMsg, got %T", msg)
	}
	if changed.Error != nil {
		t.Fatalf("unexpected error: %v", changed.Error)
	}
	if changed.Range != models.RangeDay {
		t.Errorf("Range = %s, want DAY", changed.Range)
	}
	if mgr.Range() != models.RangeDay {
		t.Errorf("manager range = %s, want DAY", mgr.Range())
	}
}

func TestCommands_RefreshUsage(t *testing.T) {
	cmds := NewCommands(newTestManager(t))

	msg := cmds.RefreshUsage()()
	start, ok := msg.(StartLoadingMsg)
	if !ok {
		t.Fatalf("Expected StartLoadingMsg, got %T", msg)
	}
	if start.Resource != "usage" {
		t.Errorf("Resource = %q, want usage", start.Resource)
	}
}

func TestLoadLoginStateCmd(t *testing.T) {
	msg := loadLoginStateCmd(newTestManager(t))()
	state, ok := msg.(LoginStateMsg)
	if !ok {
		t.Fatalf("Expected LoginStateMsg, got %T", msg)
	}
	if state.LoggedIn {
		t.Error("empty mock keychain should not be logged in")
	}
}

func TestWaitForServiceEventCmd(t *testing.T) {
	ch := make(chan services.ServiceEvent, 1)
	ch <- services.LoginChangedEvent{LoggedIn: true}

	msg := waitForServiceEventCmd(ch)()
	evt, ok := msg.(ServiceEventMsg)
	if !ok {
		t.Fatalf("Expected ServiceEventMsg, got %T", msg)
	}
	if _, ok := evt.Event.(services.LoginChangedEvent); !ok {
		t.Errorf("Expected LoginChangedEvent, got %T", evt.Event)
	}

	close(ch)
	if msg := waitForServiceEventCmd(ch)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %T", msg)
	}
}
