package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/schoolauth/pkg/revocation"
)

// HousekeepingService periodically sweeps expired entries out of the
// revocation store so it does not grow without bound.
type HousekeepingService struct {
	Store    revocation.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store revocation.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. It sweeps once immediately and then
// on every tick until Stop is called.
// Calling it again is a no-op.
func (s *HousekeepingService) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run()
		s.Logger.Info("housekeeping service started", "interval", s.Interval)
	})
}

// Stop gracefully shuts down the background worker.
// Blocks until any in-progress sweep has finished. It is safe to call
// before Start and more than once.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started.Load() {
			<-s.doneCh
		}
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

// Sweep removes expired revocation entries once. A failure is logged and
// retried on the next tick.
func (s *HousekeepingService) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	removed, err := s.Store.Sweep(ctx)
	if err != nil {
		s.Logger.Error("revocation sweep failed", "error", err)
		return
	}

	stats, err := s.Store.Stats(ctx)
	if err != nil {
		s.Logger.Error("revocation stats failed", "error", err)
		return
	}

	s.Logger.Info("revocation sweep completed", "removed", removed, "remaining", stats.Count)
}
