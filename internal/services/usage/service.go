// Package usage fetches Sense usage history on demand and on a schedule.
package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/sense-dashboard-tui/internal/credentials"
	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/sense"
)

var (
	// ErrLoginRequired is returned when no token payload is stored.
	ErrLoginRequired = errors.New("login required, run `sdt login`")
	// ErrTokenRejected is returned after the API refused the stored token.
	// The stored payload has been cleared by then.
	ErrTokenRejected = errors.New("token rejected, clearing stored value")
)

// Client is the subset of the Sense API the service uses.
type Client interface {
	Authenticate(ctx context.Context, email, password string) (*models.AuthData, error)
	FetchUsage(ctx context.Context, session models.Session, r models.TimeRange, now time.Time) (*models.PlotData, error)
}

// CredentialStore persists the token payload.
type CredentialStore interface {
	Load() (*models.AuthData, error)
	Save(auth *models.AuthData) error
	Clear() error
	LoggedIn() bool
	PurgeLegacy() error
}

// FetchLog records fetch outcomes.
type FetchLog interface {
	RecordFetch(ctx context.Context, rec *models.FetchRecord) error
}

// Event represents a usage service event.
type Event struct {
	Error error
	Plot  *models.PlotData
	Type  EventType
}

// EventType defines the type of usage event.
type EventType int

const (
	EventUsageUpdated EventType = iota
	EventUsageError
	EventLoginChanged
)

// Config holds usage service configuration.
type Config struct {
	Range        models.TimeRange
	PollInterval time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Range:        models.RangeHour,
		PollInterval: time.Minute,
	}
}

// Service performs authenticated fetches and records them.
type Service struct {
	mu        sync.RWMutex
	client    Client
	store     CredentialStore
	log       FetchLog
	config    Config
	now       func() time.Time
	eventChan chan Event
	stopChan  chan struct{}
	kickChan  chan struct{}
	resetChan chan time.Duration
	running   bool
	stopOnce  sync.Once
}

// New creates a usage service. log may be nil.
func New(client Client, store CredentialStore, log FetchLog, cfg Config) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if !cfg.Range.Valid() {
		cfg.Range = DefaultConfig().Range
	}
	return &Service{
		client:    client,
		store:     store,
		log:       log,
		config:    cfg,
		now:       time.Now,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		kickChan:  make(chan struct{}, 1),
		resetChan: make(chan time.Duration, 1),
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Login authenticates and stores the resulting token payload. The email and
// password are not kept.
func (s *Service) Login(ctx context.Context, email, password string) error {
	if err := s.store.PurgeLegacy(); err != nil {
		logger.Warn("failed to purge legacy credentials", "error", err)
	}

	auth, err := s.client.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if _, err := auth.Session(); err != nil {
		return err
	}
	if err := s.store.Save(auth); err != nil {
		return err
	}

	s.sendEvent(Event{Type: EventLoginChanged})
	s.Refresh()
	return nil
}

// Logout removes the stored token payload.
func (s *Service) Logout() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.sendEvent(Event{Type: EventLoginChanged})
	return nil
}

// LoggedIn reports whether a token payload is stored.
func (s *Service) LoggedIn() bool {
	return s.store.LoggedIn()
}

// Fetch authenticates from the stored payload, retrieves usage for r and
// logs the outcome.
func (s *Service) Fetch(ctx context.Context, r models.TimeRange) (*models.PlotData, error) {
	query, err := r.Query()
	if err != nil {
		return nil, err
	}

	rec := &models.FetchRecord{
		Range:       r,
		Granularity: query.Granularity,
		Frames:      query.SampleCount,
	}

	plot, err := s.fetch(ctx, r)
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Retrieved = plot.Retrieved
		rec.Used = len(plot.Usage)
		rec.PeakWatts = plot.Usage.Peak()
		rec.LatestWatts = plot.Usage.Latest()
	}
	s.record(rec)

	return plot, err
}

func (s *Service) fetch(ctx context.Context, r models.TimeRange) (*models.PlotData, error) {
	auth, err := s.store.Load()
	if errors.Is(err, credentials.ErrNotLoggedIn) {
		return nil, ErrLoginRequired
	}
	if err != nil {
		return nil, err
	}

	session, err := auth.Session()
	if err != nil {
		return nil, err
	}

	plot, err := s.client.FetchUsage(ctx, session, r, s.now())
	if errors.Is(err, sense.ErrUnauthorized) {
		if clearErr := s.store.Clear(); clearErr != nil {
			logger.Error("failed to clear rejected token", "error", clearErr)
		}
		s.sendEvent(Event{Type: EventLoginChanged})
		return nil, ErrTokenRejected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s usage: %w", r, err)
	}
	return plot, nil
}

func (s *Service) record(rec *models.FetchRecord) {
	if s.log == nil {
		return
	}
	if err := s.log.RecordFetch(context.Background(), rec); err != nil {
		logger.Error("failed to record fetch", "error", err)
	}
}

// Range returns the range the poll loop fetches.
func (s *Service) Range() models.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Range
}

// SetRange changes the polled range and triggers an immediate fetch.
func (s *Service) SetRange(r models.TimeRange) error {
	if !r.Valid() {
		return &models.InvalidRangeError{Token: string(r)}
	}
	s.mu.Lock()
	s.config.Range = r
	s.mu.Unlock()

	s.Refresh()
	return nil
}

// SetPollInterval changes how often the poll loop fetches.
func (s *Service) SetPollInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	changed := s.config.PollInterval != d
	s.config.PollInterval = d
	s.mu.Unlock()

	if !changed {
		return
	}
	select {
	case s.resetChan <- d:
	default:
	}
}

// Refresh asks the poll loop for an immediate fetch. It does nothing when
// the loop is not running.
func (s *Service) Refresh() {
	select {
	case s.kickChan <- struct{}{}:
	default:
	}
}

// Start begins polling in the background. The first fetch happens at once.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	interval := s.config.PollInterval
	s.mu.Unlock()

	go s.poll(interval)
}

func (s *Service) poll(interval time.Duration) {
	s.pollOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.pollOnce()
		case <-s.kickChan:
			s.pollOnce()
			ticker.Reset(s.interval())
		case d := <-s.resetChan:
			ticker.Reset(d)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.PollInterval
}

func (s *Service) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval())
	defer cancel()

	plot, err := s.Fetch(ctx, s.Range())
	if err != nil {
		logger.Warn("usage fetch failed", "error", err)
		s.sendEvent(Event{Type: EventUsageError, Error: err})
		return
	}
	s.sendEvent(Event{Type: EventUsageUpdated, Plot: plot})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the poll loop.
func (s *Service) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}
