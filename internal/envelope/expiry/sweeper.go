// Package expiry runs the background sweep that moves overdue envelopes to
// expired.
package expiry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Expirer is the slice of the workflow service the sweeper needs.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// Sweeper ticks on an interval and expires overdue envelopes. Each envelope
// transition revalidates under its own lock, so overlapping sweeps and
// concurrent completions resolve safely in the store.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(expirer Expirer, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{expirer: expirer, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled. It belongs in the process
// errgroup next to the HTTP server.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "expiry sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Start launches Run on the given errgroup.
func (s *Sweeper) Start(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		err := s.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err.Error())
		return
	}
	if expired > 0 {
		s.logger.InfoContext(ctx, "expiry sweep finished", "expired", expired)
	}
}
