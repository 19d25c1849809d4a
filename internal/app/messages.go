package app

import (
	"time"

	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/services"
)

// TickMsg is sent periodically to expire notifications.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// UsageUpdatedMsg carries a freshly polled usage series.
type UsageUpdatedMsg struct {
	Plot *models.PlotData
}

// UsageErrorMsg reports a failed poll.
type UsageErrorMsg struct {
	Error error
}

// FetchLogLoadedMsg contains the recent fetch log and per-range peaks.
type FetchLogLoadedMsg struct {
	Records []models.FetchRecord
	Peaks   map[models.TimeRange]float64
	Error   error
}

// LoginStateMsg reports whether a token payload is stored.
type LoginStateMsg struct {
	LoggedIn bool
}

// RangeChangedMsg contains the result of switching the polled range.
type RangeChangedMsg struct {
	Range models.TimeRange
	Error error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "usage", "history"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}
