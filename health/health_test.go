package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/persistence"
	"github.com/getkayan/medgas/session"
	"github.com/labstack/echo/v4"
)

type staticStore struct{ sess session.Session }

func (s staticStore) Get() session.Session { return s.sess }

type failingStorage struct{ persistence.MemoryStorage }

func (*failingStorage) Ping(context.Context) error { return errors.New("connection refused") }

func backend(t *testing.T, status int, body string) *client.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(client.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestBackendProbe(t *testing.T) {
	ctx := context.Background()

	if got := Backend(backend(t, 200, `{"status":"healthy"}`)).Probe(ctx); got.Status != StatusHealthy {
		t.Errorf("healthy backend: %v %s", got.Status, got.Message)
	}
	if got := Backend(backend(t, 200, `{"status":"starting"}`)).Probe(ctx); got.Status != StatusDegraded {
		t.Errorf("starting backend: %v", got.Status)
	}
	if got := Backend(backend(t, 500, `{"detail":"db down"}`)).Probe(ctx); got.Status != StatusUnhealthy || !strings.Contains(got.Message, "db down") {
		t.Errorf("failing backend: %v %q", got.Status, got.Message)
	}
}

func TestStorageProbe(t *testing.T) {
	ctx := context.Background()

	if got := Storage(persistence.NewMemoryStorage()).Probe(ctx); got.Status != StatusHealthy {
		t.Errorf("empty memory storage should be healthy, got %v %s", got.Status, got.Message)
	}
	if got := Storage(&failingStorage{}).Probe(ctx); got.Status != StatusUnhealthy {
		t.Errorf("failing ping should be unhealthy, got %v", got.Status)
	}
}

func TestSessionProbe(t *testing.T) {
	ctx := context.Background()

	if got := Session(staticStore{}).Probe(ctx); got.Status != StatusDegraded {
		t.Errorf("no session: %v", got.Status)
	}
	live := session.Session{Token: "opaque", User: &domain.User{Rol: domain.RoleAdmin}}
	if got := Session(staticStore{live}).Probe(ctx); got.Status != StatusHealthy || got.Message != "ADMIN" {
		t.Errorf("live session: %v %q", got.Status, got.Message)
	}
}

func static(status Status) Probe {
	return ProbeFunc(func(context.Context) Result { return Result{Status: status} })
}

func TestManagerAggregatesWorstStatus(t *testing.T) {
	m := NewManager("test")
	m.Add("a", static(StatusHealthy))
	m.Add("b", static(StatusDegraded))

	report := m.Run(context.Background())
	if report.Status != StatusDegraded || !report.Healthy() {
		t.Fatalf("status = %v, want degraded", report.Status)
	}
	if len(report.Checks) != 2 || report.Checks[0].Name != "a" || report.Checks[1].Name != "b" {
		t.Fatalf("checks out of order: %+v", report.Checks)
	}

	m.Add("c", static(""))
	report = m.Run(context.Background())
	if report.Status != StatusUnhealthy || report.Healthy() {
		t.Fatalf("empty result should count as unhealthy, got %v", report.Status)
	}
	if report.Checks[2].Message == "" {
		t.Error("empty result should explain itself")
	}
}

func TestManagerTimeout(t *testing.T) {
	m := NewManager("test", WithTimeout(10*time.Millisecond))
	m.Add("slow", ProbeFunc(func(ctx context.Context) Result {
		<-ctx.Done()
		return unhealthy(ctx.Err().Error())
	}))

	report := m.Run(context.Background())
	if report.Status != StatusUnhealthy {
		t.Fatalf("status = %v, want unhealthy", report.Status)
	}
}

func TestHandler(t *testing.T) {
	m := NewManager("test")
	m.Add("down", static(StatusUnhealthy))

	e := echo.New()
	e.GET("/healthz", m.Handler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", rec.Code)
	}
}
