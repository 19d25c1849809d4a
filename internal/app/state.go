// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"maps"
	"sync"
	"time"

	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Usage   bool
	History bool
}

// State is shared by the root model and every tab.
type State struct {
	mu sync.RWMutex

	Plot     *models.PlotData
	Range    models.TimeRange
	LoggedIn bool
	Config   *config.Config

	Fetches []models.FetchRecord
	Peaks   map[models.TimeRange]float64

	Loading LoadingState

	LastUpdated time.Time
	LastError   string

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state in the initial loading phase.
func NewState() *State {
	return &State{
		Range:         models.RangeHour,
		Peaks:         make(map[models.TimeRange]float64),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "usage":
		s.Loading.Usage = loading
	case "history":
		s.Loading.History = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.Usage || s.Loading.History
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, "initial")
	}
	if s.Loading.Usage {
		resources = append(resources, "usage")
	}
	if s.Loading.History {
		resources = append(resources, "history")
	}
	return resources
}

// SetPlot stores the latest usage series and clears the last error.
func (s *State) SetPlot(plot *models.PlotData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Plot = plot
	if plot != nil {
		s.Range = plot.Range
	}
	s.LastError = ""
	s.LastUpdated = time.Now()
}

// GetPlot returns the latest usage series, or nil before the first poll.
func (s *State) GetPlot() *models.PlotData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Plot
}

// SetRange records the range being polled.
func (s *State) SetRange(r models.TimeRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Range = r
}

// GetRange returns the range being polled.
func (s *State) GetRange() models.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Range
}

// SetLoggedIn records whether a token payload is stored.
func (s *State) SetLoggedIn(loggedIn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoggedIn = loggedIn
}

// IsLoggedIn reports whether a token payload is stored.
func (s *State) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LoggedIn
}

// SetConfig stores the active configuration.
func (s *State) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Config = cfg
}

// GetConfig returns the active configuration.
func (s *State) GetConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Config
}

// SetFetchLog replaces the fetch log and the per-range peaks.
func (s *State) SetFetchLog(records []models.FetchRecord, peaks map[models.TimeRange]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Fetches = records
	s.Peaks = make(map[models.TimeRange]float64, len(peaks))
	maps.Copy(s.Peaks, peaks)
}

// GetFetches returns a copy of the fetch log, newest first.
func (s *State) GetFetches() []models.FetchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.FetchRecord, len(s.Fetches))
	copy(records, s.Fetches)
	return records
}

// GetPeaks returns a copy of the per-range peaks.
func (s *State) GetPeaks() map[models.TimeRange]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.Peaks)
}

// SetLastError records the most recent poll failure.
func (s *State) SetLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastError = msg
}

// GetLastError returns the most recent poll failure, or "".
func (s *State) GetLastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastError
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the time of the last successful poll.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}
