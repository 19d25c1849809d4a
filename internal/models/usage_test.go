package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceTotals(t *testing.T) {
	totals := [][]float64{
		{1, 500},     // sentinel low, dropped
		{-1, 480},    // sentinel low, dropped
		{1.5, 700},   // kept as high
		{320, 410.5}, // kept as high
		{42},         // malformed, dropped
		nil,
		{0.99, 900},
	}

	got := ReduceTotals(totals)
	assert.Equal(t, UsageSeries{700, 410.5}, got)
}

func TestReduceTotals_Empty(t *testing.T) {
	assert.Empty(t, ReduceTotals(nil))
}

func TestUsageSeries_PeakLatest(t *testing.T) {
	s := UsageSeries{120, 950, 300}
	assert.Equal(t, 950.0, s.Peak())
	assert.Equal(t, 300.0, s.Latest())

	var empty UsageSeries
	assert.Zero(t, empty.Peak())
	assert.Zero(t, empty.Latest())
}

func TestNewPlotData(t *testing.T) {
	body := `{"start":"2024-03-10T10:45:00.000Z","endOfData":1710072000000,"totals":[[2,100],[1,5],[3,200]]}`
	var resp UsageResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	p := NewPlotData(RangeHour, &resp)
	assert.Equal(t, RangeHour, p.Range)
	assert.Equal(t, 3, p.Retrieved)
	assert.Equal(t, UsageSeries{100, 200}, p.Usage)
	assert.Equal(t, time.Date(2024, 3, 10, 10, 45, 0, 0, time.UTC), p.StartTime.UTC())
	assert.Equal(t, time.UnixMilli(1710072000000), p.EndTime)
	assert.Equal(t, "Sense Usage, Past Hour", p.Title())
}

func TestAuthData_Session(t *testing.T) {
	body := `{"authorized":true,"user_id":77,"access_token":"tok","monitors":[{"id":1234,"time_zone":"UTC"},{"id":9}]}`
	var auth AuthData
	require.NoError(t, json.Unmarshal([]byte(body), &auth))
	assert.False(t, auth.Failed())

	s, err := auth.Session()
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "tok", UserID: 77, MonitorID: 1234}, s)
	assert.Equal(t, "1234", s.MonitorIDString())
}

func TestAuthData_NoMonitor(t *testing.T) {
	auth := AuthData{AccessToken: "tok"}
	_, err := auth.Session()
	assert.ErrorIs(t, err, ErrNoMonitor)
}

func TestAuthData_Failed(t *testing.T) {
	auth := AuthData{Status: "error", ErrorReason: "bad password"}
	assert.True(t, auth.Failed())
}
