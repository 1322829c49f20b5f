// Package sweeper runs the recurring reservation maintenance pass: expiring
// unpaid holds and completing elapsed stays.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Lifecycle is the slice of the booking service the sweeper drives. Every
// underlying mutation is a conditional write, so overlapping sweeps and
// concurrent gateway confirmations are safe.
type Lifecycle interface {
	ExpireUnpaid(ctx context.Context) (int, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

// Sweeper invokes SweepOnce on a fixed interval. It is an injectable
// component with no process-wide state; Start and Stop bracket its
// goroutine from main.
type Sweeper struct {
	lifecycle Lifecycle
	interval  time.Duration
	logger    *slog.Logger
	ticker    *time.Ticker
	done      chan struct{}
}

func NewSweeper(lifecycle Lifecycle, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		lifecycle: lifecycle,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start runs one sweep immediately, then sweeps every interval until Stop.
func (s *Sweeper) Start() {
	s.logger.Info("reservation sweeper started", "interval", s.interval)
	s.SweepOnce(context.Background())

	s.ticker = time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.SweepOnce(context.Background())
			case <-s.done:
				return
			}
		}
	}()
}

// Stop halts the periodic runs. A sweep already in flight finishes.
func (s *Sweeper) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)
	s.logger.Info("reservation sweeper stopped")
}

// SweepOnce performs a single maintenance pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	expired, err := s.lifecycle.ExpireUnpaid(ctx)
	if err != nil {
		s.logger.Error("failed to expire unpaid reservations", "error", err)
	}

	completed, err := s.lifecycle.CompleteElapsed(ctx)
	if err != nil {
		s.logger.Error("failed to complete elapsed reservations", "error", err)
	}

	if expired > 0 || completed > 0 {
		s.logger.Info("sweep finished", "expired", expired, "completed", completed)
	}
}
