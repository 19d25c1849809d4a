package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// ErrNoMonitor is returned when an authenticated account has no monitor.
var ErrNoMonitor = errors.New("account has no Sense monitor")

// Monitor is one Sense monitor attached to an account.
type Monitor struct {
	TimeZone     string `json:"time_zone,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	ID           int64  `json:"id"`
}

// AuthData is the payload returned by the authenticate endpoint.
// It is persisted verbatim in the credential store; the user's email and
// password never are.
type AuthData struct {
	Status      string    `json:"status,omitempty"`
	ErrorReason string    `json:"error_reason,omitempty"`
	AccessToken string    `json:"access_token"`
	Monitors    []Monitor `json:"monitors"`
	UserID      int64     `json:"user_id"`
	Authorized  bool      `json:"authorized,omitempty"`
}

// Failed reports whether the payload describes a rejected login.
func (a *AuthData) Failed() bool {
	return a.Status == "error"
}

// Session returns the values needed for data requests.
// Only the first monitor is used.
func (a *AuthData) Session() (Session, error) {
	if len(a.Monitors) == 0 {
		return Session{}, ErrNoMonitor
	}
	return Session{
		UserID:    a.UserID,
		Token:     a.AccessToken,
		MonitorID: a.Monitors[0].ID,
	}, nil
}

// Session carries an authenticated user's token and monitor.
type Session struct {
	Token     string
	UserID    int64
	MonitorID int64
}

// MonitorIDString returns the monitor id formatted for query strings.
func (s Session) MonitorIDString() string {
	return strconv.FormatInt(s.MonitorID, 10)
}

// parseTimeField attempts to parse a JSON time value as either ISO string or Unix timestamp.
func parseTimeField(data json.RawMessage) time.Time {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		if t, err := time.Parse(time.RFC3339, strVal); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, strVal); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05.000Z", strVal); err == nil {
			return t
		}
	}

	// Unix timestamp in milliseconds or seconds
	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		if numVal > 1e12 {
			return time.UnixMilli(int64(numVal))
		}
		return time.Unix(int64(numVal), 0)
	}

	return time.Time{}
}
