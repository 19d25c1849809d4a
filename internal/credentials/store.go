// Package credentials keeps the Sense token payload in the OS keychain.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

const (
	// Service is the keychain service name entries are stored under.
	Service = "sense-dashboard-tui"
	// AuthKey holds the JSON encoded authenticate payload.
	AuthKey = "SenseAuth"
)

// Keys written by releases that stored the raw email and password.
var legacyKeys = []string{"SenseAuthUser", "SenseAuthPass"}

// ErrNotLoggedIn is returned when no token payload is stored.
var ErrNotLoggedIn = errors.New("login required")

// Store reads and writes the token payload.
type Store struct {
	service string
}

// New returns a store using the default service name.
func New() *Store {
	return &Store{service: Service}
}

// NewWithService returns a store under a custom service name.
func NewWithService(service string) *Store {
	return &Store{service: service}
}

// Load returns the stored payload.
func (s *Store) Load() (*models.AuthData, error) {
	raw, err := keyring.Get(s.service, AuthKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keychain: %w", err)
	}

	var auth models.AuthData
	if err := json.Unmarshal([]byte(raw), &auth); err != nil {
		return nil, fmt.Errorf("failed to parse stored credentials: %w", err)
	}
	return &auth, nil
}

// Save stores the payload, replacing any previous one.
func (s *Store) Save(auth *models.AuthData) error {
	if auth == nil {
		return fmt.Errorf("auth data is nil")
	}
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := keyring.Set(s.service, AuthKey, string(data)); err != nil {
		return fmt.Errorf("failed to write keychain: %w", err)
	}
	logger.Info("Stored Sense credentials", "user_id", auth.UserID)
	return nil
}

// Clear removes the payload. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	err := keyring.Delete(s.service, AuthKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keychain: %w", err)
	}
	return nil
}

// LoggedIn reports whether a payload is stored.
func (s *Store) LoggedIn() bool {
	_, err := keyring.Get(s.service, AuthKey)
	return err == nil
}

// PurgeLegacy deletes plaintext login entries left by older releases.
func (s *Store) PurgeLegacy() error {
	var errs []error
	for _, key := range legacyKeys {
		err := keyring.Delete(s.service, key)
		switch {
		case err == nil:
			logger.Info("Removed legacy keychain entry", "key", key)
		case errors.Is(err, keyring.ErrNotFound):
		default:
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
