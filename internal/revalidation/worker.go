// Package revalidation periodically re-queries the external registry for
// creditors that hold automatically fetched certificates, keeping their
// clearance status current.
package revalidation

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mercatorio/internal/domain"
)

// maxConcurrentRefreshes bounds parallel registry queries per sweep.
const maxConcurrentRefreshes = 4

// Store is the slice of the repository the worker needs.
type Store interface {
	ListCreditors(ctx context.Context) ([]domain.Creditor, error)
}

// Refresher re-checks one creditor's automatic certificates against the
// registry.
type Refresher interface {
	Refresh(ctx context.Context, creditor domain.Creditor) error
}

// Worker drives periodic certificate revalidation sweeps.
type Worker struct {
	store     Store
	refresher Refresher
	logger    *slog.Logger
	interval  time.Duration
}

// NewWorker constructs a revalidation worker that sweeps every interval.
func NewWorker(store Store, refresher Refresher, logger *slog.Logger, interval time.Duration) *Worker {
	return &Worker{store: store, refresher: refresher, logger: logger, interval: interval}
}

// Run sweeps on a ticker until the context is canceled. A failed sweep is
// logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "revalidation worker started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "revalidation worker stopped")
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "revalidation sweep failed", "error", err.Error())
			}
		}
	}
}

// RunOnce performs a single sweep over all creditors. Per-creditor failures
// are logged and skipped so one flaky registry response cannot starve the
// rest of the sweep; the sweep itself only fails when the creditor listing
// does.
func (w *Worker) RunOnce(ctx context.Context) error {
	creditors, err := w.store.ListCreditors(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRefreshes)
	for _, creditor := range creditors {
		g.Go(func() error {
			if err := w.refresher.Refresh(ctx, creditor); err != nil {
				w.logger.WarnContext(ctx, "certificate refresh failed",
					"creditor_id", creditor.ID, "error", err.Error())
			}
			return nil
		})
	}
	return g.Wait()
}
