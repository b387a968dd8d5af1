// Package monitor probes the resource store on a cron schedule
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/journeymate/backend/internal/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const probeTimeout = 5 * time.Second

// Pinger checks that a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreMonitor periodically pings the store, exports the result as a gauge
// and logs when the store goes down or comes back.
type StoreMonitor struct {
	store  Pinger
	logger *zap.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	checked bool
	up      bool
}

// NewStoreMonitor creates a new store monitor
func NewStoreMonitor(store Pinger, logger *zap.Logger) *StoreMonitor {
	return &StoreMonitor{
		store:  store,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start runs a first check and schedules the following ones.
// "schedule" accepts standard cron expressions and descriptors such as "@every 30s".
func (m *StoreMonitor) Start(schedule string) error {
	if _, err := m.cron.AddFunc(schedule, m.Check); err != nil {
		return fmt.Errorf("invalid store monitor schedule %q: %w", schedule, err)
	}
	m.Check()
	m.cron.Start()
	m.logger.Info("store monitor started", zap.String("schedule", schedule))
	return nil
}

// Stop stops the scheduler and waits for a running check to finish
func (m *StoreMonitor) Stop() {
	<-m.cron.Stop().Done()
}

// Check pings the store once
func (m *StoreMonitor) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	err := m.store.Ping(ctx)
	up := err == nil
	if up {
		metrics.StoreUp.Set(1)
	} else {
		metrics.StoreUp.Set(0)
	}

	m.mu.Lock()
	changed := !m.checked || m.up != up
	m.checked = true
	m.up = up
	m.mu.Unlock()

	switch {
	case !up && changed:
		m.logger.Error("resource store is unreachable", zap.Error(err))
	case up && changed:
		m.logger.Info("resource store is reachable")
	}
}

// Up reports the result of the last check
func (m *StoreMonitor) Up() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.up
}
