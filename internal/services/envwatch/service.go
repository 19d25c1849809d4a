// Package envwatch reloads configuration when its .env file changes.
package envwatch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// Event carries either a reloaded configuration or the error that
// prevented the reload.
type Event struct {
	Config *config.Config
	Error  error
}

// ReloadFunc rebuilds the configuration from the changed file.
type ReloadFunc func(prev *config.Config) (*config.Config, error)

// Service watches the .env file a configuration was loaded from.
type Service struct {
	mu            sync.Mutex
	current       *config.Config
	reload        ReloadFunc
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	stopOnce      sync.Once
}

// New creates a watcher for cfg.EnvPath. A nil reload uses config.Reload.
func New(cfg *config.Config, reload ReloadFunc) *Service {
	if reload == nil {
		reload = config.Reload
	}
	return &Service{
		current:   cfg,
		reload:    reload,
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Start begins watching. It does nothing when no .env file was loaded.
func (s *Service) Start() error {
	if s.current.EnvPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(s.current.EnvPath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		s.watcher = nil
		return err
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	target := filepath.Base(s.current.EnvPath)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			s.mu.Lock()
			if s.debounceTimer != nil {
				s.debounceTimer.Stop()
			}
			s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
			s.mu.Unlock()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads configuration after the file was written.
func (s *Service) handleFileChange() {
	s.mu.Lock()
	prev := s.current
	s.mu.Unlock()

	next, err := s.reload(prev)
	if err != nil {
		logger.Warn("config reload failed", "path", prev.EnvPath, "error", err)
		s.sendEvent(Event{Error: err})
		return
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	logger.Info("config reloaded", "path", next.EnvPath)
	s.sendEvent(Event{Config: next})
}

// Current returns the most recently loaded configuration.
func (s *Service) Current() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
	}
}

// Close stops watching.
func (s *Service) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()
		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
