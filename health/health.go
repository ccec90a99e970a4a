// Package health reports whether the console can do its job: the backend
// answers, the session storage is reachable and a usable session exists.
//
//	manager := health.NewManager(version, health.WithTimeout(5*time.Second))
//	manager.Add("backend", health.Backend(rootClient))
//	manager.Add("session_storage", health.Storage(store.Storage()))
//	manager.Add("session", health.Session(store))
//
//	e.GET("/healthz", manager.Handler())
package health

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/session"
	"github.com/labstack/echo/v4"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// rank orders statuses by severity. Unknown values rank as unhealthy.
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Result is what a probe observed.
type Result struct {
	Status  Status
	Message string
}

func healthy(msg string) Result   { return Result{Status: StatusHealthy, Message: msg} }
func degraded(msg string) Result  { return Result{Status: StatusDegraded, Message: msg} }
func unhealthy(msg string) Result { return Result{Status: StatusUnhealthy, Message: msg} }

// Probe checks one dependency. It should return once ctx is done.
type Probe interface {
	Probe(ctx context.Context) Result
}

type ProbeFunc func(ctx context.Context) Result

func (f ProbeFunc) Probe(ctx context.Context) Result { return f(ctx) }

// Check is one line of a Report.
type Check struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type Report struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version"`
	CheckedAt time.Time `json:"checked_at"`
	Checks    []Check   `json:"checks"`
}

// Healthy is false only when some check is unhealthy; degraded still serves.
func (r *Report) Healthy() bool { return r.Status != StatusUnhealthy }

type entry struct {
	name  string
	probe Probe
}

// Manager runs the added probes concurrently under one timeout.
type Manager struct {
	mu      sync.Mutex
	entries []entry
	version string
	timeout time.Duration
}

type ManagerOption func(*Manager)

func NewManager(version string, opts ...ManagerOption) *Manager {
	m := &Manager{version: version, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.timeout = d }
}

// Add registers p under name. Reports list checks in the order they were
// added.
func (m *Manager) Add(name string, p Probe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{name: name, probe: p})
}

// Run probes everything once. The report status is the worst check status.
func (m *Manager) Run(ctx context.Context) *Report {
	m.mu.Lock()
	entries := append([]entry(nil), m.entries...)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	report := &Report{
		Status:  StatusHealthy,
		Version: m.version,
		Checks:  make([]Check, len(entries)),
	}

	var wg sync.WaitGroup
	wg.Add(len(entries))
	for i, e := range entries {
		go func() {
			defer wg.Done()
			report.Checks[i] = runProbe(ctx, e)
		}()
	}
	wg.Wait()

	report.CheckedAt = time.Now()
	for _, c := range report.Checks {
		if c.Status.rank() > report.Status.rank() {
			report.Status = c.Status
		}
	}
	return report
}

func runProbe(ctx context.Context, e entry) Check {
	start := time.Now()
	res := e.probe.Probe(ctx)
	if res.Status == "" {
		res = unhealthy("probe returned no status")
	}
	return Check{
		Name:      e.name,
		Status:    res.Status,
		Message:   res.Message,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

// Handler serves the full report; unhealthy answers 503.
func (m *Manager) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		report := m.Run(c.Request().Context())
		if !report.Healthy() {
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}

// Backend calls the server's unauthenticated /health endpoint. c must be
// rooted at the server address, not at the /api prefix.
func Backend(c *client.Client) Probe {
	return ProbeFunc(func(ctx context.Context) Result {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.Get(ctx, "/health", nil, &body); err != nil {
			return unhealthy(err.Error())
		}
		if body.Status != "" && body.Status != string(StatusHealthy) {
			return degraded(body.Status)
		}
		return healthy(body.Status)
	})
}

// Storage pings the session backend when it supports it and otherwise
// performs a read. An empty storage is healthy.
func Storage(storage domain.SessionStorage) Probe {
	return ProbeFunc(func(ctx context.Context) Result {
		var err error
		if p, ok := storage.(domain.Pinger); ok {
			err = p.Ping(ctx)
		} else if _, err = storage.Load(ctx); errors.Is(err, domain.ErrNoSession) {
			err = nil
		}
		if err != nil {
			return unhealthy(err.Error())
		}
		return healthy("connected")
	})
}

// Session is degraded while nobody is logged in or the token has expired.
func Session(store interface{ Get() session.Session }) Probe {
	return sessionProbe{store: store, now: time.Now}
}

type sessionProbe struct {
	store interface{ Get() session.Session }
	now   func() time.Time
}

func (p sessionProbe) Probe(context.Context) Result {
	sess := p.store.Get()
	switch {
	case !sess.Valid():
		return degraded("not logged in")
	case sess.Expired(p.now()):
		return degraded("token expired")
	default:
		return healthy(string(sess.Role()))
	}
}
