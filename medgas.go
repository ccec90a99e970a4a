// Package medgas assembles the client-side stack shared by the CLI and the
// console: session storage, the session store, the authenticated API client,
// the service modules, the route guard and the health checks.
package medgas

import (
	"context"
	"fmt"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/config"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/download"
	"github.com/getkayan/medgas/health"
	"github.com/getkayan/medgas/persistence"
	"github.com/getkayan/medgas/rbac"
	"github.com/getkayan/medgas/service"
	"github.com/getkayan/medgas/session"
	"github.com/getkayan/medgas/telemetry"
)

// Version is set at build time.
var Version = "dev"

// App is one process's wiring. There is exactly one session store per App.
type App struct {
	Config    *config.Config
	Storage   domain.SessionStorage
	Store     *session.Store
	Signal    *client.Signal
	Client    *client.Client
	Services  *service.Services
	Guard     *rbac.Guard
	Health    *health.Manager
	Heartbeat *session.Heartbeat
}

// New opens the configured session backend, rehydrates the session once and
// builds everything on top of it. The heartbeat is created but not started.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	storage, err := persistence.NewStorage(cfg.SessionBackend, cfg.SessionDSN, cfg.SessionProfile)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}
	return NewWithStorage(ctx, cfg, storage)
}

// NewWithStorage is New with an already opened storage.
func NewWithStorage(ctx context.Context, cfg *config.Config, storage domain.SessionStorage) (*App, error) {
	store, err := session.NewStore(ctx, storage)
	if err != nil {
		return nil, err
	}

	clientCfg := client.Config{
		BaseURL:   cfg.APIURL + "/api",
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}
	sig := client.NewSignal()
	api, err := client.ForSession(clientCfg, store, sig)
	if err != nil {
		return nil, err
	}

	// /health lives at the server root and needs no credential.
	clientCfg.BaseURL = cfg.APIURL
	root, err := client.New(clientCfg)
	if err != nil {
		return nil, err
	}

	svc := service.New(api, store, download.NewSaver(cfg.DownloadDir))

	hm := health.NewManager(Version)
	hm.Add("backend", health.Backend(root))
	hm.Add("session_storage", health.Storage(storage))
	hm.Add("session", health.Session(store))

	app := &App{
		Config:   cfg,
		Storage:  storage,
		Store:    store,
		Signal:   sig,
		Client:   api,
		Services: svc,
		Guard:    rbac.NewGuard(store),
		Health:   hm,
	}

	if cfg.Heartbeat != "" {
		hb, err := session.NewHeartbeat(store, cfg.Heartbeat, func(ctx context.Context) error {
			_, err := svc.Users.Me(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("heartbeat %q: %w", cfg.Heartbeat, err)
		}
		app.Heartbeat = hb
	}

	return app, nil
}

// Close stops the heartbeat if it was started.
func (a *App) Close() {
	if a.Heartbeat != nil {
		a.Heartbeat.Stop()
	}
}

// NewTelemetry installs the tracer provider described by cfg.
func NewTelemetry(cfg *config.Config) (*telemetry.Provider, error) {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = Version
	tc.Environment = cfg.Environment
	tc.OTLPEndpoint = cfg.OTLPEndpoint
	tc.SamplingRate = cfg.TraceSampleRate
	tc.Enabled = cfg.TelemetryEnabled
	return telemetry.NewProvider(tc)
}
