// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath       string
	LogPath            string
	BaseURL            string
	ListenAddr         string
	SSHAddr            string
	SSHHostKeyPath     string
	AuthorizedKeysPath string
	Theme              string
	// EnvPath is the .env file that was loaded, empty when none was found.
	EnvPath         string
	Range           models.TimeRange
	RefreshInterval time.Duration
	HTTPTimeout     time.Duration
	// PeakAlertWatts enables a desktop notification when a fetch peak
	// crosses it. Zero disables the alert.
	PeakAlertWatts float64
	Debug          bool
}

// Load reads configuration from .env files and environment variables.
// Variables already set in the environment win over the .env file.
func Load() (*Config, error) {
	envPath := findEnvFile()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}
	return build(envPath)
}

// Reload re-reads the .env file the configuration came from, letting its
// values replace the ones loaded earlier.
func Reload(prev *Config) (*Config, error) {
	if prev.EnvPath != "" {
		if err := godotenv.Overload(prev.EnvPath); err != nil {
			return nil, fmt.Errorf("failed to reload %s: %w", prev.EnvPath, err)
		}
	}
	return build(prev.EnvPath)
}

func build(envPath string) (*Config, error) {
	timeRange, err := models.ParseTimeRange(getEnvString("SENSE_RANGE", defaultRange))
	if err != nil {
		return nil, fmt.Errorf("SENSE_RANGE: %w", err)
	}

	theme := strings.ToLower(getEnvString("SENSE_THEME", defaultTheme))
	if theme != ThemeDark && theme != ThemeLight {
		return nil, fmt.Errorf("SENSE_THEME must be %q or %q, got %q", ThemeDark, ThemeLight, theme)
	}

	cfg := &Config{
		DatabasePath:    getEnvString("DATABASE_PATH", getDefaultPath("fetches.db")),
		LogPath:         getEnvString("SENSE_LOG_PATH", getDefaultPath("sdt.log")),
		BaseURL:         getEnvString("SENSE_BASE_URL", defaultBaseURL),
		ListenAddr:      getEnvString("SENSE_LISTEN_ADDR", defaultListenAddr),
		SSHAddr:         getEnvString("SENSE_SSH_ADDR", defaultSSHAddr),
		SSHHostKeyPath:  getEnvString("SENSE_SSH_HOST_KEY", getDefaultPath(filepath.Join("ssh", "id_ed25519"))),
		Theme:           theme,
		EnvPath:         envPath,
		Range:           timeRange,
		RefreshInterval: getEnvDuration("SENSE_REFRESH_INTERVAL", defaultRefreshInterval),
		HTTPTimeout:     getEnvDuration("SENSE_HTTP_TIMEOUT", defaultHTTPTimeout),
		PeakAlertWatts:  getEnvFloat("SENSE_PEAK_ALERT_WATTS", 0),
		Debug:           getEnvBool("SENSE_DEBUG", false),
	}
	cfg.AuthorizedKeysPath = getEnvString("SENSE_SSH_AUTHORIZED_KEYS", defaultAuthorizedKeysPath())

	if cfg.RefreshInterval < minRefreshInterval {
		cfg.RefreshInterval = minRefreshInterval
	}
	if cfg.PeakAlertWatts < 0 {
		cfg.PeakAlertWatts = 0
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.LogPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findEnvFile returns the first existing .env file from getEnvPaths.
func findEnvFile() string {
	for _, path := range getEnvPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, ".sense", ".env"),
		)
	}

	return paths
}

// defaultAuthorizedKeysPath returns ~/.ssh/authorized_keys.
func defaultAuthorizedKeysPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ssh", "authorized_keys")
	}
	return filepath.Join(home, ".ssh", "authorized_keys")
}

// getDefaultPath returns a file path inside the application directory.
func getDefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", appDirName, name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
