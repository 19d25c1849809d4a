package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/sense-dashboard-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// FetchLogLimit is the number of fetch log entries shown in the history tab.
	FetchLogLimit = 50

	loadTimeout = 5 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData returns a command that loads everything not delivered by
// the poll loop.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadLoginStateCmd(mgr),
		loadFetchLogCmd(mgr),
	)
}

// loadLoginStateCmd returns a command that reports whether a token is stored.
func loadLoginStateCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return LoginStateMsg{LoggedIn: mgr.LoggedIn()}
	}
}

// loadFetchLogCmd returns a command that loads the fetch log and per-range peaks.
func loadFetchLogCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		records, err := mgr.RecentFetches(ctx, FetchLogLimit)
		if err != nil {
			return FetchLogLoadedMsg{Error: err}
		}
		peaks, err := mgr.PeakByRange(ctx)
		if err != nil {
			return FetchLogLoadedMsg{Error: err}
		}
		return FetchLogLoadedMsg{Records: records, Peaks: peaks}
	}
}

// refreshUsageCmd returns a command that asks the poll loop to fetch now.
func refreshUsageCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Refresh()
		return StartLoadingMsg{Resource: "usage"}
	}
}

// cycleRangeCmd returns a command that switches the poll loop to the next range.
func cycleRangeCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		next := mgr.Range().Next()
		if err := mgr.SetRange(next); err != nil {
			return RangeChangedMsg{Range: mgr.Range(), Error: err}
		}
		return RangeChangedMsg{Range: next}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// Commands builds the commands the root model issues. Methods that need the
// manager return nil without one.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// DefaultTick returns a tick command with the default interval.
func (c *Commands) DefaultTick() tea.Cmd {
	return defaultTickCmd()
}

// LoadFetchLog returns a command that loads the fetch log, or nil without a manager.
func (c *Commands) LoadFetchLog() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return loadFetchLogCmd(c.manager)
}

// RefreshUsage returns a command that polls the current range now.
func (c *Commands) RefreshUsage() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return refreshUsageCmd(c.manager)
}

// CycleRange returns a command that switches to the next range.
func (c *Commands) CycleRange() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return cycleRangeCmd(c.manager)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// ClearNotification returns a command that removes a notification after a delay.
func (c *Commands) ClearNotification(id string, delay time.Duration) tea.Cmd {
	return clearNotificationCmd(id, delay)
}

// Quit returns a command that quits the application.
func (c *Commands) Quit() tea.Cmd {
	return tea.Quit
}
