package config

import "time"

// Theme names accepted by SENSE_THEME.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Default values
const (
	defaultRange           = "HOUR"
	defaultTheme           = ThemeDark
	defaultBaseURL         = "https://api.sense.com/apiservice/api/v1"
	defaultListenAddr      = ":8080"
	defaultSSHAddr         = ":2222"
	defaultRefreshInterval = 60 * time.Second
	defaultHTTPTimeout     = 30 * time.Second
	minRefreshInterval     = 10 * time.Second

	appDirName = "sense-dashboard-tui"
)
