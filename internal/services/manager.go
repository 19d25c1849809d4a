// Package services provides service orchestration for the TUI, the CLI and
// the widget server.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/credentials"
	"github.com/j-veylop/sense-dashboard-tui/internal/db"
	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/sense"
	"github.com/j-veylop/sense-dashboard-tui/internal/services/envwatch"
	"github.com/j-veylop/sense-dashboard-tui/internal/services/usage"
)

// Re-exported so callers need not import the usage package.
var (
	ErrLoginRequired = usage.ErrLoginRequired
	ErrTokenRejected = usage.ErrTokenRejected
)

type (
	// UsageUpdatedEvent is emitted after a successful poll.
	UsageUpdatedEvent struct {
		Plot *models.PlotData
	}

	// LoginChangedEvent is emitted when a token is stored or cleared.
	LoginChangedEvent struct {
		LoggedIn bool
	}

	// ConfigChangedEvent is emitted after the .env file was reloaded.
	ConfigChangedEvent struct {
		Config *config.Config
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageUpdatedEvent) isServiceEvent()  {}
func (LoginChangedEvent) isServiceEvent()  {}
func (ConfigChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()         {}

// notify shows a desktop notification.
var notify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu            sync.RWMutex
	cfg           *config.Config
	usage         *usage.Service
	watcher       *envwatch.Service
	database      *db.DB
	eventChan     chan ServiceEvent
	stopChan      chan struct{}
	subscribers   []chan<- ServiceEvent
	previousPeaks map[models.TimeRange]float64
	closeOnce     sync.Once
}

// NewManager creates a new service manager backed by the Sense API, the OS
// keychain and the fetch log database.
func NewManager(cfg *config.Config) (*Manager, error) {
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client := sense.New(cfg.BaseURL, cfg.HTTPTimeout)
	return newManager(cfg, client, credentials.New(), database), nil
}

func newManager(cfg *config.Config, client usage.Client, store usage.CredentialStore, database *db.DB) *Manager {
	m := &Manager{
		cfg:           cfg,
		database:      database,
		eventChan:     make(chan ServiceEvent, 100),
		stopChan:      make(chan struct{}),
		previousPeaks: make(map[models.TimeRange]float64),
	}

	var log usage.FetchLog
	if database != nil {
		log = database
	}
	m.usage = usage.New(client, store, log, usage.Config{
		Range:        cfg.Range,
		PollInterval: cfg.RefreshInterval,
	})
	m.watcher = envwatch.New(cfg, nil)

	go m.routeEvents()

	return m
}

// Start begins background polling and watching the .env file.
func (m *Manager) Start() {
	m.usage.Start()
	if err := m.watcher.Start(); err != nil {
		logger.Warn("failed to watch config file", "error", err)
		m.broadcast(ErrorEvent{Service: "config", Error: err})
	}
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.usage.Events():
			m.handleUsageEvent(event)

		case event := <-m.watcher.Events():
			m.handleConfigEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleUsageEvent(event usage.Event) {
	switch event.Type {
	case usage.EventUsageUpdated:
		m.checkNotifications(event.Plot)
		m.broadcast(UsageUpdatedEvent{Plot: event.Plot})

	case usage.EventUsageError:
		m.broadcast(ErrorEvent{Service: "usage", Error: event.Error})

	case usage.EventLoginChanged:
		m.broadcast(LoginChangedEvent{LoggedIn: m.usage.LoggedIn()})
	}
}

func (m *Manager) handleConfigEvent(event envwatch.Event) {
	if event.Error != nil {
		m.broadcast(ErrorEvent{Service: "config", Error: event.Error})
		return
	}

	m.mu.Lock()
	m.cfg = event.Config
	m.mu.Unlock()

	m.usage.SetPollInterval(event.Config.RefreshInterval)
	if event.Config.Range != m.usage.Range() {
		_ = m.usage.SetRange(event.Config.Range)
	}

	m.broadcast(ConfigChangedEvent{Config: event.Config})
}

// checkNotifications raises a desktop notification when the peak of a range
// crosses the configured alert threshold upward.
func (m *Manager) checkNotifications(plot *models.PlotData) {
	if plot == nil {
		return
	}

	m.mu.Lock()
	threshold := m.cfg.PeakAlertWatts
	peak := plot.Usage.Peak()
	oldPeak, exists := m.previousPeaks[plot.Range]
	m.previousPeaks[plot.Range] = peak
	m.mu.Unlock()

	if threshold <= 0 || !exists {
		return
	}

	if peak >= threshold && oldPeak < threshold {
		title := "Sense: high usage"
		body := fmt.Sprintf("Peak over the past %s reached %.0fW (alert at %.0fW)",
			plot.Range.Label(), peak, threshold)
		if err := notify(title, body); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe registers a buffered channel that receives every service event
// until Unsubscribe or Close.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes and closes a subscriber channel. Channels already
// closed by Close are ignored.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Config returns the current configuration.
func (m *Manager) Config() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Login authenticates with Sense and stores the token payload.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.usage.Login(ctx, email, password)
}

// Logout clears the stored token payload.
func (m *Manager) Logout() error {
	return m.usage.Logout()
}

// LoggedIn reports whether a token payload is stored.
func (m *Manager) LoggedIn() bool {
	return m.usage.LoggedIn()
}

// Fetch retrieves usage for r right away, independent of the poll loop.
func (m *Manager) Fetch(ctx context.Context, r models.TimeRange) (*models.PlotData, error) {
	return m.usage.Fetch(ctx, r)
}

// Range returns the polled range.
func (m *Manager) Range() models.TimeRange {
	return m.usage.Range()
}

// SetRange changes the polled range and fetches it.
func (m *Manager) SetRange(r models.TimeRange) error {
	return m.usage.SetRange(r)
}

// Refresh polls the current range immediately.
func (m *Manager) Refresh() {
	m.usage.Refresh()
}

// RecentFetches returns the newest fetch log entries.
func (m *Manager) RecentFetches(ctx context.Context, limit int) ([]models.FetchRecord, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.RecentFetches(ctx, limit)
}

// PeakByRange returns the highest logged peak per range.
func (m *Manager) PeakByRange(ctx context.Context) (map[models.TimeRange]float64, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.PeakByRange(ctx)
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.usage.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
