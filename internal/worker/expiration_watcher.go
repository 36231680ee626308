// Package worker contains background loops that run next to the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredReservationReleaser releases holds whose expiry passed without a
// confirmation and reports how many seats went back to the pool.
type ExpiredReservationReleaser interface {
	ReleaseExpiredReservations(ctx context.Context) (int, error)
}

// ExpirationWatcher is the backstop for payment-expiry notifications that
// never arrive: it sweeps on a fixed interval and releases elapsed holds
// through the same idempotent ledger path the message handlers use. Expiry
// detection therefore lags a hold's deadline by at most one interval.
type ExpirationWatcher struct {
	releaser ExpiredReservationReleaser
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewExpirationWatcher(releaser ExpiredReservationReleaser, interval time.Duration, logger *slog.Logger) *ExpirationWatcher {
	return &ExpirationWatcher{
		releaser: releaser,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start blocks until Stop is called or ctx is cancelled.
func (w *ExpirationWatcher) Start(ctx context.Context) {
	w.logger.Info("starting expiration watcher", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping expiration watcher", "reason", "context cancelled")
			return
		case <-w.stopCh:
			w.logger.Info("stopping expiration watcher", "reason", "stop requested")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop signals the watcher and waits for the current sweep to finish.
func (w *ExpirationWatcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *ExpirationWatcher) sweep(ctx context.Context) {
	count, err := w.releaser.ReleaseExpiredReservations(ctx)
	if err != nil {
		w.logger.Error("expiration sweep failed", "error", err, "released", count)
		return
	}

	if count > 0 {
		w.logger.Info("released expired reservations", "count", count)
	}
}
