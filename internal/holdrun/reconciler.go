package holdrun

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Reconciler drives the read phase: for every batch it issues one
// aggregate status query and attaches the result to each mailbox. A failed
// aggregate query degrades to sequential per-mailbox queries for that
// batch only; each per-mailbox failure counts against the error threshold
// but never aborts the batch. The threshold is checked at every batch
// boundary.
type Reconciler struct {
	service StatusService
	monitor *ThresholdMonitor
	logger  *slog.Logger

	batchSize       int
	throttleDelay   time.Duration
	cleanupInterval int

	// progress, when set, is called after each batch with the number of
	// mailboxes reconciled so far and the total.
	progress func(done, total int)

	// sleepFunc is swapped out in tests to avoid real throttle delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewReconciler creates a read-phase driver from advisor output. progress
// may be nil.
func NewReconciler(
	service StatusService,
	monitor *ThresholdMonitor,
	advice Advice,
	logger *slog.Logger,
	progress func(done, total int),
) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		service:         service,
		monitor:         monitor,
		logger:          logger,
		batchSize:       advice.BatchSize,
		throttleDelay:   advice.ThrottleDelay,
		cleanupInterval: advice.CleanupInterval,
		progress:        progress,
		sleepFunc:       sleepCtx,
	}
}

// Run annotates every mailbox with a HoldStatus. On a tripped threshold it
// stops before the next batch and returns ErrThresholdExceeded; statuses
// resolved so far remain attached.
func (r *Reconciler) Run(ctx context.Context, mailboxes []*Mailbox) error {
	total := len(mailboxes)
	if total == 0 {
		return nil
	}

	r.logger.Info("reconciling hold status",
		slog.Int("mailboxes", total),
		slog.Int("batch_size", r.batchSize),
		slog.Int("batches", BatchCount(total, r.batchSize)),
	)

	done := 0

	for batch := range Batches(mailboxes, r.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.reconcileBatch(ctx, batch)

		done += len(batch.Mailboxes)
		r.logger.Debug("batch reconciled",
			slog.Int("batch", batch.Index),
			slog.Int("done", done),
			slog.Int("percent", done*100/total),
		)

		if r.progress != nil {
			r.progress(done, total)
		}

		// Threshold check happens only at batch boundaries.
		if r.monitor.ShouldAbort() {
			r.logger.Error("halting reconciliation",
				slog.Int64("errors", r.monitor.Errors()),
				slog.Int("batch", batch.Index),
			)

			return r.monitor.Err()
		}

		if r.cleanupInterval > 0 && batch.Index%r.cleanupInterval == 0 {
			// Advisory memory-pressure mitigation on very large populations.
			runtime.GC()
		}

		if r.throttleDelay > 0 && done < total {
			if err := r.sleepFunc(ctx, r.throttleDelay); err != nil {
				return err
			}
		}
	}

	return nil
}

// reconcileBatch resolves one batch, degrading to per-mailbox queries when
// the aggregate call fails.
func (r *Reconciler) reconcileBatch(ctx context.Context, batch Batch) {
	upns := make([]string, 0, len(batch.Mailboxes))
	for _, m := range batch.Mailboxes {
		upns = append(upns, m.UPN)
	}

	statuses, err := r.service.HoldStatuses(ctx, upns)
	if err != nil {
		r.logger.Warn("aggregate status query failed, falling back to per-mailbox queries",
			slog.Int("batch", batch.Index),
			slog.Int("size", len(upns)),
			slog.String("error", err.Error()),
		)

		r.reconcileFallback(ctx, batch)

		return
	}

	for _, m := range batch.Mailboxes {
		status, ok := statuses[m.UPN]
		if !ok {
			// Unknown to the status service: no target resource.
			m.Status = &HoldStatus{HasMailbox: false}

			continue
		}

		s := status
		m.Status = &s
	}
}

// reconcileFallback queries each mailbox in the batch sequentially. A
// per-mailbox failure records a threshold failure and marks the mailbox as
// having no target resource; the rest of the batch continues.
func (r *Reconciler) reconcileFallback(ctx context.Context, batch Batch) {
	for _, m := range batch.Mailboxes {
		status, err := r.service.HoldStatusOf(ctx, m.UPN)
		if err != nil {
			r.monitor.RecordFailure()
			m.Status = &HoldStatus{HasMailbox: false}

			r.logger.Warn("status query failed",
				slog.String("upn", m.UPN),
				slog.String("error", err.Error()),
			)

			continue
		}

		m.Status = &status
	}
}

// sleepCtx waits for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
