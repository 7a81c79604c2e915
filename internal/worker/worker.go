// Package worker runs the payment reconciliation loop: payments whose cart
// entries were not removed when they were recorded get cleaned up here.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/musiccamp/internal/observability"
)

type Reconciler interface {
	ReconcilePayments(ctx context.Context, limit int) (int, error)
}

type Config struct {
	PollInterval time.Duration
	Batch        int
	WorkerID     string
	// PassTimeout bounds a single reconciliation pass.
	PassTimeout time.Duration
}

type Worker struct {
	cfg  Config
	rec  Reconciler
	prom *observability.Prom
	log  *slog.Logger

	readyMu sync.RWMutex
	ready   bool

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(cfg Config, rec Reconciler, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 50
	}
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:   cfg,
		rec:   rec,
		prom:  prom,
		log:   log.With("worker_id", cfg.WorkerID),
		sleep: sleepCtx,
	}
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// another pass; failed passes back off exponentially.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started", "poll_interval", w.cfg.PollInterval.String(), "batch", w.cfg.Batch)

	failures := 0
	for {
		if ctx.Err() != nil {
			w.log.Info("worker received shutdown signal")
			return nil
		}

		n, err := w.ProcessOne(ctx)

		var wait time.Duration
		switch {
		case err != nil && ctx.Err() == nil:
			wait = ExponentialBackoff(failures)
			failures++
			w.log.Error("reconcile pass failed", "err", err, "attempt", failures, "retry_in", wait.String())
		case n >= w.cfg.Batch:
			failures = 0
			continue
		default:
			failures = 0
			wait = w.cfg.PollInterval
		}

		if !w.sleep(ctx, wait) {
			w.log.Info("worker received shutdown signal")
			return nil
		}
	}
}

// ProcessOne runs a single reconciliation pass and returns how many payments
// it cleared.
func (w *Worker) ProcessOne(ctx context.Context) (int, error) {
	passCtx, cancel := context.WithTimeout(ctx, w.cfg.PassTimeout)
	defer cancel()

	start := time.Now()
	n, err := w.rec.ReconcilePayments(passCtx, w.cfg.Batch)

	if w.prom != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		w.prom.ReconcileRuns.WithLabelValues(result).Inc()
		w.prom.ReconcileCleared.Add(float64(n))
		w.prom.ReconcileDuration.Observe(time.Since(start).Seconds())
	}

	if n > 0 {
		w.log.Info("payments reconciled", "count", n, "duration_ms", time.Since(start).Milliseconds())
	}

	return n, err
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
