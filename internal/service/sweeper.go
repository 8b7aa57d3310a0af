package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
)

const sweepBatchSize = 100

var sweepMetadata = json.RawMessage(`{"source":"reconciliation-sweep","reason":"stale pending"}`)

// Sweeper drives stale PENDING payments to FAILED. A cancelled checkout never
// produces a terminal webhook, so without the sweep those records sit PENDING
// forever. Transitions go through the engine, which keeps the notification and
// idempotency rules intact.
type Sweeper struct {
	store    PaymentStore
	engine   *TransitionEngine
	interval time.Duration
	ttl      time.Duration
	logger   *zap.Logger
}

func NewSweeper(store PaymentStore, engine *TransitionEngine, interval, ttl time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		engine:   engine,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce fails one batch of stale PENDING payments and returns how many
// transitions were committed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	stale, err := s.store.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, p := range stale {
		result, err := s.engine.Apply(ctx, p.ID, models.PaymentStatusFailed, "", sweepMetadata)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				continue
			}
			return swept, err
		}
		if result.Outcome == OutcomeApplied {
			swept++
		}
	}

	if swept > 0 {
		s.logger.Info("stale pending payments swept",
			zap.Int("swept", swept),
			zap.Time("cutoff", cutoff))
	}

	return swept, nil
}
