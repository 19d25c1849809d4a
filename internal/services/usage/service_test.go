package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/sense-dashboard-tui/internal/credentials"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/sense"
)

type fakeClient struct {
	mu       sync.Mutex
	auth     *models.AuthData
	authErr  error
	plot     *models.PlotData
	fetchErr error
	calls    []models.TimeRange
	sessions []models.Session
}

func (f *fakeClient) Authenticate(_ context.Context, _, _ string) (*models.AuthData, error) {
	return f.auth, f.authErr
}

func (f *fakeClient) FetchUsage(_ context.Context, s models.Session, r models.TimeRange, _ time.Time) (*models.PlotData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r)
	f.sessions = append(f.sessions, s)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	p := *f.plot
	p.Range = r
	return &p, nil
}

type fakeStore struct {
	auth    *models.AuthData
	cleared bool
	purged  bool
}

func (f *fakeStore) Load() (*models.AuthData, error) {
	if f.auth == nil {
		return nil, credentials.ErrNotLoggedIn
	}
	return f.auth, nil
}
func (f *fakeStore) Save(a *models.AuthData) error { f.auth = a; return nil }
func (f *fakeStore) Clear() error                  { f.auth = nil; f.cleared = true; return nil }
func (f *fakeStore) LoggedIn() bool                { return f.auth != nil }
func (f *fakeStore) PurgeLegacy() error            { f.purged = true; return nil }

type fakeLog struct {
	mu      sync.Mutex
	records []models.FetchRecord
}

func (f *fakeLog) RecordFetch(_ context.Context, rec *models.FetchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *rec)
	return nil
}

func validAuth() *models.AuthData {
	return &models.AuthData{AccessToken: "tok", UserID: 1, Monitors: []models.Monitor{{ID: 42}}}
}

func newTestService(store *fakeStore) (*Service, *fakeClient, *fakeLog) {
	client := &fakeClient{plot: &models.PlotData{Usage: models.UsageSeries{100, 900, 300}, Retrieved: 5}}
	log := &fakeLog{}
	return New(client, store, log, DefaultConfig()), client, log
}

func TestNew_Defaults(t *testing.T) {
	s := New(&fakeClient{}, &fakeStore{}, nil, Config{Range: "bogus"})
	if s.Range() != models.RangeHour {
		t.Errorf("Range() = %s, want HOUR", s.Range())
	}
	if s.interval() != time.Minute {
		t.Errorf("interval() = %v, want 1m", s.interval())
	}
}

func TestFetch(t *testing.T) {
	s, client, log := newTestService(&fakeStore{auth: validAuth()})

	plot, err := s.Fetch(context.Background(), models.RangeDay)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if plot.Range != models.RangeDay {
		t.Errorf("Range = %s, want DAY", plot.Range)
	}
	if client.sessions[0].MonitorID != 42 || client.sessions[0].Token != "tok" {
		t.Errorf("unexpected session %+v", client.sessions[0])
	}

	if len(log.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(log.records))
	}
	rec := log.records[0]
	if rec.Range != models.RangeDay || rec.Granularity != models.GranularityMinute || rec.Frames != 1440 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Used != 3 || rec.Retrieved != 5 || rec.PeakWatts != 900 || rec.LatestWatts != 300 {
		t.Errorf("unexpected record stats %+v", rec)
	}
	if !rec.Succeeded() {
		t.Error("record should be successful")
	}
}

func TestFetch_LoginRequired(t *testing.T) {
	s, client, log := newTestService(&fakeStore{})

	_, err := s.Fetch(context.Background(), models.RangeHour)
	if !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("Fetch() error = %v, want ErrLoginRequired", err)
	}
	if len(client.calls) != 0 {
		t.Error("no request should be made without a token")
	}
	if len(log.records) != 1 || log.records[0].Succeeded() {
		t.Errorf("failed fetch should be logged, got %+v", log.records)
	}
}

func TestFetch_TokenRejected(t *testing.T) {
	store := &fakeStore{auth: validAuth()}
	s, client, _ := newTestService(store)
	client.fetchErr = sense.ErrUnauthorized

	_, err := s.Fetch(context.Background(), models.RangeHour)
	if !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("Fetch() error = %v, want ErrTokenRejected", err)
	}
	if err.Error() != "token rejected, clearing stored value" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !store.cleared || store.LoggedIn() {
		t.Error("rejected token should be cleared")
	}

	select {
	case ev := <-s.Events():
		if ev.Type != EventLoginChanged {
			t.Errorf("event type = %v, want EventLoginChanged", ev.Type)
		}
	default:
		t.Error("expected login changed event")
	}
}

func TestFetch_InvalidRange(t *testing.T) {
	s, client, log := newTestService(&fakeStore{auth: validAuth()})

	_, err := s.Fetch(context.Background(), "FORTNIGHT")
	if !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("Fetch() error = %v, want ErrInvalidRange", err)
	}
	if len(client.calls) != 0 || len(log.records) != 0 {
		t.Error("invalid range should not reach the API or the log")
	}
}

func TestFetch_NoMonitor(t *testing.T) {
	s, _, _ := newTestService(&fakeStore{auth: &models.AuthData{AccessToken: "tok"}})

	_, err := s.Fetch(context.Background(), models.RangeHour)
	if !errors.Is(err, models.ErrNoMonitor) {
		t.Errorf("Fetch() error = %v, want ErrNoMonitor", err)
	}
}

func TestLogin(t *testing.T) {
	store := &fakeStore{}
	s, client, _ := newTestService(store)
	client.auth = validAuth()

	if err := s.Login(context.Background(), "me@example.com", "pw"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if !store.LoggedIn() || store.auth.AccessToken != "tok" {
		t.Error("token payload should be stored")
	}
	if !store.purged {
		t.Error("legacy entries should be purged on login")
	}
}

func TestLogin_Failure(t *testing.T) {
	store := &fakeStore{}
	s, client, _ := newTestService(store)
	client.authErr = &sense.AuthError{Reason: "bad password"}

	err := s.Login(context.Background(), "me@example.com", "nope")
	var authErr *sense.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want AuthError", err)
	}
	if store.LoggedIn() {
		t.Error("nothing should be stored after a failed login")
	}
}

func TestLogin_NoMonitor(t *testing.T) {
	store := &fakeStore{}
	s, client, _ := newTestService(store)
	client.auth = &models.AuthData{AccessToken: "tok"}

	if err := s.Login(context.Background(), "a", "b"); !errors.Is(err, models.ErrNoMonitor) {
		t.Errorf("Login() error = %v, want ErrNoMonitor", err)
	}
	if store.LoggedIn() {
		t.Error("payload without monitors should not be stored")
	}
}

func TestLogout(t *testing.T) {
	store := &fakeStore{auth: validAuth()}
	s, _, _ := newTestService(store)

	if err := s.Logout(); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if s.LoggedIn() {
		t.Error("LoggedIn() should be false after logout")
	}
}

func TestSetRange(t *testing.T) {
	s, _, _ := newTestService(&fakeStore{auth: validAuth()})

	if err := s.SetRange(models.RangeYear); err != nil {
		t.Fatalf("SetRange() failed: %v", err)
	}
	if s.Range() != models.RangeYear {
		t.Errorf("Range() = %s, want YEAR", s.Range())
	}
	if err := s.SetRange("year"); !errors.Is(err, models.ErrInvalidRange) {
		t.Errorf("SetRange(year) error = %v, want ErrInvalidRange", err)
	}
}

func TestPoll(t *testing.T) {
	s, client, _ := newTestService(&fakeStore{auth: validAuth()})
	s.SetPollInterval(time.Hour)
	s.Start()
	defer s.Close()

	ev := waitEvent(t, s)
	if ev.Type != EventUsageUpdated || ev.Plot.Range != models.RangeHour {
		t.Fatalf("unexpected first event %+v", ev)
	}

	if err := s.SetRange(models.RangeWeek); err != nil {
		t.Fatalf("SetRange() failed: %v", err)
	}
	ev = waitEvent(t, s)
	if ev.Type != EventUsageUpdated || ev.Plot.Range != models.RangeWeek {
		t.Fatalf("unexpected event after range change %+v", ev)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.calls) != 2 {
		t.Errorf("expected 2 fetches, got %v", client.calls)
	}
}

func TestPoll_Error(t *testing.T) {
	s, _, _ := newTestService(&fakeStore{})
	s.Start()
	defer s.Close()

	ev := waitEvent(t, s)
	if ev.Type != EventUsageError || !errors.Is(ev.Error, ErrLoginRequired) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestClose_Idempotent(t *testing.T) {
	s, _, _ := newTestService(&fakeStore{})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func waitEvent(t *testing.T, s *Service) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
