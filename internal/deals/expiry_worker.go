package deals

import (
	"context"
	"log/slog"
	"time"

	"github.com/dealradar/dealradar/internal/logger"
)

// ExpiryWorker removes deals past their expiration timestamp.
type ExpiryWorker struct {
	store    *Store
	logger   *logger.Logger
	interval time.Duration
}

func NewExpiryWorker(store *Store, logger *logger.Logger, interval time.Duration) *ExpiryWorker {
	return &ExpiryWorker{
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Run starts the expiry worker loop.
func (w *ExpiryWorker) Run(ctx context.Context) {
	log := w.logger.WithComponent("deal-expiry-worker")
	log.Info("starting deal expiry worker", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run immediately on startup
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("deal expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	log := w.logger.WithComponent("deal-expiry-worker")

	removed, err := w.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Error("failed to sweep expired deals", slog.String("error", err.Error()))
		return
	}

	if removed > 0 {
		log.Info("expired deals removed", slog.Int64("count", removed))
	}
}
