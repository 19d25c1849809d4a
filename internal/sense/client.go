// Package sense talks to the Sense cloud API.
package sense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

const (
	// DefaultBaseURL is the Sense API root.
	DefaultBaseURL = "https://api.sense.com/apiservice/api/v1"

	defaultTimeout = 30 * time.Second

	// startLayout is the ISO-8601 form the usage endpoint expects.
	startLayout = "2006-01-02T15:04:05.000Z"
)

// ErrUnauthorized is returned when the API rejects the stored token.
var ErrUnauthorized = errors.New("token rejected")

// APIError is returned for unexpected HTTP statuses.
type APIError struct {
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sense api error (status %d): %s", e.StatusCode, e.Body)
}

// AuthError is returned when the API refuses a login.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication with Sense API failed: " + e.Reason
}

// Client performs Sense API requests.
type Client struct {
	httpClient *http.Client
	BaseURL    string
}

// New creates a client. An empty baseURL selects DefaultBaseURL and a
// non-positive timeout selects 30 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Authenticate exchanges an email and password for an access token payload.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*models.AuthData, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	data := url.Values{}
	data.Set("email", email)
	data.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/authenticate", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	var auth models.AuthData
	if err := json.Unmarshal(body, &auth); err != nil {
		if status != http.StatusOK {
			return nil, &APIError{StatusCode: status, Body: string(body)}
		}
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}

	if auth.Failed() {
		logger.Error("Login error", "reason", auth.ErrorReason)
		return nil, &AuthError{Reason: auth.ErrorReason}
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}
	if auth.AccessToken == "" {
		return nil, fmt.Errorf("login response has no access token")
	}

	logger.Info("Login success", "user_id", auth.UserID)
	return &auth, nil
}

// FetchUsage retrieves the usage history for r, counted back from now, and
// reduces it to plot data.
func (c *Client) FetchUsage(ctx context.Context, session models.Session, r models.TimeRange, now time.Time) (*models.PlotData, error) {
	query, err := r.Query()
	if err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, fmt.Errorf("access token is empty")
	}

	params := url.Values{}
	params.Set("monitor_id", session.MonitorIDString())
	params.Set("granularity", string(query.Granularity))
	params.Set("start", query.Start(now).UTC().Format(startLayout))
	params.Set("frames", strconv.Itoa(query.SampleCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/app/history/usage?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage request: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+session.Token)

	body, status, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case status != http.StatusOK:
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var resp models.UsageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse usage response: %w", err)
	}

	plot := models.NewPlotData(r, &resp)
	logger.Debug("Retrieved data points", "count", plot.Retrieved, "range", r)
	logger.Debug("Using data points", "count", len(plot.Usage), "range", r)
	return plot, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
