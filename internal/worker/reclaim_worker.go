package worker

import (
	"context"
	"time"

	"github.com/novatix/novatix-backend/internal/service"
	"github.com/novatix/novatix-backend/pkg/logger"
	"go.uber.org/zap"
)

// reclaimBatchSize caps how many expired reservations one sweep releases
const reclaimBatchSize = 100

// ReclaimWorker periodically releases credit reservations whose deadline
// has passed. A reservation expires when the process died between reserve
// and commit, or when a release itself failed; without the sweep those
// credits would be held forever.
type ReclaimWorker struct {
	ledger   service.LedgerService
	log      *logger.Logger
	interval time.Duration
	done     chan struct{}
}

// NewReclaimWorker creates a new ReclaimWorker
func NewReclaimWorker(ledger service.LedgerService, log *logger.Logger, interval time.Duration) *ReclaimWorker {
	return &ReclaimWorker{
		ledger:   ledger,
		log:      log,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context is cancelled
func (w *ReclaimWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("reservation reclaim worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop signals the worker to exit
func (w *ReclaimWorker) Stop() {
	close(w.done)
}

func (w *ReclaimWorker) sweep(ctx context.Context) {
	reclaimed, err := w.ledger.ReclaimExpired(ctx, time.Now(), reclaimBatchSize)
	if err != nil {
		w.log.ErrorContext(ctx, "reservation sweep failed", zap.Error(err))
		return
	}
	if reclaimed > 0 {
		w.log.InfoContext(ctx, "reservation sweep completed", zap.Int("reclaimed", reclaimed))
	}
}
