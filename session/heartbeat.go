package session

import (
	"context"
	"time"

	"github.com/getkayan/medgas/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ProbeFunc performs an authenticated call. A 401 answer is handled by the
// request pipeline, which clears the store.
type ProbeFunc func(ctx context.Context) error

// Heartbeat periodically probes the backend while a session exists so that a
// token expiring during idle time is noticed before the next navigation.
type Heartbeat struct {
	store   *Store
	probe   ProbeFunc
	timeout time.Duration
	cron    *cron.Cron
}

// NewHeartbeat schedules probe with a cron spec such as "@every 5m".
func NewHeartbeat(store *Store, spec string, probe ProbeFunc) (*Heartbeat, error) {
	h := &Heartbeat{
		store:   store,
		probe:   probe,
		timeout: 10 * time.Second,
		cron:    cron.New(),
	}
	if _, err := h.cron.AddFunc(spec, func() { h.Beat(context.Background()) }); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Heartbeat) Start() { h.cron.Start() }

// Stop waits for a running probe to finish.
func (h *Heartbeat) Stop() {
	<-h.cron.Stop().Done()
}

// Beat runs one probe. It does nothing without a session and reports
// whether a probe was sent.
func (h *Heartbeat) Beat(ctx context.Context) bool {
	if !h.store.Get().Valid() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.probe(ctx); err != nil {
		logger.Log.Debug("session heartbeat failed", zap.Error(err))
	}
	return true
}
