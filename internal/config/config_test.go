package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

// isolate points HOME and the working directory at an empty temp dir so no
// real .env file is picked up, and clears the variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	for _, key := range []string{
		"SENSE_RANGE", "SENSE_THEME", "SENSE_BASE_URL", "DATABASE_PATH",
		"SENSE_REFRESH_INTERVAL", "SENSE_HTTP_TIMEOUT", "SENSE_PEAK_ALERT_WATTS",
		"SENSE_LISTEN_ADDR", "SENSE_LOG_PATH", "SENSE_DEBUG",
		"SENSE_SSH_ADDR", "SENSE_SSH_HOST_KEY", "SENSE_SSH_AUTHORIZED_KEYS",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(tmpDir)
	return tmpDir
}

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	t.Setenv(key, "  test_value ")

	if got := getEnvString(key, "default"); got != "test_value" {
		t.Errorf("getEnvString() = %q, want %q", got, "test_value")
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvFloatAndBool(t *testing.T) {
	t.Setenv("TEST_FLOAT", "1500.5")
	t.Setenv("TEST_BAD_FLOAT", "lots")
	t.Setenv("TEST_BOOL", "true")

	if got := getEnvFloat("TEST_FLOAT", 0); got != 1500.5 {
		t.Errorf("getEnvFloat() = %v, want 1500.5", got)
	}
	if got := getEnvFloat("TEST_BAD_FLOAT", 7); got != 7 {
		t.Errorf("getEnvFloat() = %v, want default 7", got)
	}
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool() = false, want true")
	}
	if getEnvBool("TEST_MISSING_BOOL", false) {
		t.Error("getEnvBool() = true, want default false")
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetDefaultPath(t *testing.T) {
	home := isolate(t)

	want := filepath.Join(home, ".config", appDirName, "fetches.db")
	if got := getDefaultPath("fetches.db"); got != want {
		t.Errorf("getDefaultPath() = %q, want %q", got, want)
	}
}

func TestGetEnvPaths(t *testing.T) {
	home := isolate(t)

	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Fatal("getEnvPaths() returned no paths")
	}

	want := filepath.Join(home, ".config", appDirName, ".env")
	found := false
	for _, p := range paths {
		if p == want {
			found = true
		}
	}
	if !found {
		t.Errorf("getEnvPaths() = %v, missing %q", paths, want)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Range != models.RangeHour {
		t.Errorf("Range = %q, want HOUR", cfg.Range)
	}
	if cfg.Theme != ThemeDark {
		t.Errorf("Theme = %q, want %q", cfg.Theme, ThemeDark)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
	if cfg.HTTPTimeout != defaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, defaultHTTPTimeout)
	}
	if cfg.BaseURL != defaultBaseURL || cfg.ListenAddr != defaultListenAddr {
		t.Errorf("unexpected endpoints: %q %q", cfg.BaseURL, cfg.ListenAddr)
	}
	if cfg.SSHAddr != defaultSSHAddr {
		t.Errorf("SSHAddr = %q, want %q", cfg.SSHAddr, defaultSSHAddr)
	}
	if cfg.SSHHostKeyPath != filepath.Join(home, ".config", appDirName, "ssh", "id_ed25519") {
		t.Errorf("SSHHostKeyPath = %q", cfg.SSHHostKeyPath)
	}
	if cfg.AuthorizedKeysPath != filepath.Join(home, ".ssh", "authorized_keys") {
		t.Errorf("AuthorizedKeysPath = %q", cfg.AuthorizedKeysPath)
	}
	if cfg.PeakAlertWatts != 0 || cfg.Debug {
		t.Errorf("alert/debug should default off: %v %v", cfg.PeakAlertWatts, cfg.Debug)
	}
	if cfg.EnvPath != "" {
		t.Errorf("EnvPath = %q, want empty", cfg.EnvPath)
	}
	if filepath.Dir(cfg.DatabasePath) != filepath.Join(home, ".config", appDirName) {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if _, err := os.Stat(filepath.Dir(cfg.DatabasePath)); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	tmpDir := isolate(t)
	t.Setenv("SENSE_RANGE", " WEEK ")
	t.Setenv("SENSE_THEME", "Light")
	t.Setenv("SENSE_REFRESH_INTERVAL", "2m")
	t.Setenv("SENSE_PEAK_ALERT_WATTS", "4000")
	t.Setenv("SENSE_DEBUG", "1")
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "db", "fetches.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Range != models.RangeWeek {
		t.Errorf("Range = %q, want WEEK", cfg.Range)
	}
	if cfg.Theme != ThemeLight {
		t.Errorf("Theme = %q, want light", cfg.Theme)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Errorf("RefreshInterval = %v, want 2m", cfg.RefreshInterval)
	}
	if cfg.PeakAlertWatts != 4000 || !cfg.Debug {
		t.Errorf("alert/debug = %v %v", cfg.PeakAlertWatts, cfg.Debug)
	}
}

func TestLoad_ClampsRefreshInterval(t *testing.T) {
	isolate(t)
	t.Setenv("SENSE_REFRESH_INTERVAL", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RefreshInterval != minRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, minRefreshInterval)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SENSE_RANGE", "hour"},
		{"SENSE_RANGE", "DECADE"},
		{"SENSE_THEME", "solarized"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := isolate(t)
	envPath := filepath.Join(tmpDir, ".env")
	content := "SENSE_RANGE=MONTH\nSENSE_THEME=light\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	// godotenv.Load only fills unset variables.
	os.Unsetenv("SENSE_RANGE")
	os.Unsetenv("SENSE_THEME")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Range != models.RangeMonth {
		t.Errorf("Range = %q, want MONTH", cfg.Range)
	}
	if cfg.EnvPath != envPath {
		t.Errorf("EnvPath = %q, want %q", cfg.EnvPath, envPath)
	}
}

func TestReload(t *testing.T) {
	tmpDir := isolate(t)
	envPath := filepath.Join(tmpDir, ".env")
	if err := os.WriteFile(envPath, []byte("SENSE_RANGE=DAY\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	os.Unsetenv("SENSE_RANGE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Range != models.RangeDay {
		t.Fatalf("Range = %q, want DAY", cfg.Range)
	}

	if err := os.WriteFile(envPath, []byte("SENSE_RANGE=YEAR\nSENSE_PEAK_ALERT_WATTS=2500\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	next, err := Reload(cfg)
	if err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}
	if next.Range != models.RangeYear {
		t.Errorf("Range = %q, want YEAR", next.Range)
	}
	if next.PeakAlertWatts != 2500 {
		t.Errorf("PeakAlertWatts = %v, want 2500", next.PeakAlertWatts)
	}
}
