// Package expiry runs the background sweep that flips overdue pending
// opportunities to expired. Reads already exclude overdue rows, so the
// sweep is a cleanup pass, not a correctness gate.
package expiry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/replyscout/replyscout/internal/store"
)

// Config controls batch size and sweep cadence.
type Config struct {
	BatchSize int           // rows expired per cycle
	Interval  time.Duration // sweep interval
}

// Worker periodically expires overdue opportunities.
type Worker struct {
	store store.Store
	log   zerolog.Logger
	cfg   Config
	now   func() time.Time
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(s store.Store, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	return &Worker{store: s, log: log, cfg: cfg, now: time.Now}
}

// Run starts the sweep loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("expiry worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("expiry worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.sweepOnce(ctx); err != nil {
				// Log and continue; the next tick retries
				w.log.Error().Err(err).Msg("expiry sweep")
			}
		}
	}
}

// sweepOnce drains overdue rows in batches until a sweep comes up short
// of the batch size, so a backlog clears in one cycle.
func (w *Worker) sweepOnce(ctx context.Context) error {
	var total int64
	for {
		n, err := w.store.Opportunities().ExpireOverdue(ctx, w.now().UTC(), w.cfg.BatchSize)
		if err != nil {
			return err
		}
		total += n
		if n < int64(w.cfg.BatchSize) {
			break
		}
	}
	if total > 0 {
		w.log.Info().Int64("expired", total).Msg("expired overdue opportunities")
	}
	return nil
}
