package holdrun

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxMutationBatch caps mutation sub-batches below the read batch size.
// Enabling a hold is destructive enough that a smaller blast radius of
// simultaneous failures is worth the throughput cost.
const maxMutationBatch = 100

// Mutator applies the litigation-hold change to the mailboxes that need
// it, one sub-batch at a time. Within a sub-batch, one task per mailbox is
// admitted into a pool bounded at the configured concurrency; the
// coordinator waits for the whole sub-batch before starting the next, so
// failure counting is exact at every checkpoint. In preview mode no
// external call is made and every outcome is synthesized as a success.
type Mutator struct {
	service StatusService
	monitor *ThresholdMonitor
	logger  *slog.Logger

	batchSize   int
	concurrency int
	preview     bool

	// nowFunc stamps outcomes. Injectable for testing.
	nowFunc func() time.Time
}

// NewMutator creates a mutation-phase driver. The effective sub-batch size
// is min(advice.BatchSize, 100).
func NewMutator(
	service StatusService,
	monitor *ThresholdMonitor,
	advice Advice,
	preview bool,
	logger *slog.Logger,
) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Mutator{
		service:     service,
		monitor:     monitor,
		logger:      logger,
		batchSize:   min(advice.BatchSize, maxMutationBatch),
		concurrency: advice.Concurrency,
		preview:     preview,
		nowFunc:     time.Now,
	}
}

// Run processes the needs-action set and returns one outcome per mailbox
// attempted. On a tripped threshold it stops scheduling further
// sub-batches and returns the outcomes recorded so far alongside
// ErrThresholdExceeded. An empty input returns immediately.
func (mu *Mutator) Run(ctx context.Context, mailboxes []*Mailbox) ([]Outcome, error) {
	if len(mailboxes) == 0 {
		return nil, nil
	}

	mu.logger.Info("enabling litigation hold",
		slog.Int("mailboxes", len(mailboxes)),
		slog.Int("sub_batch_size", mu.batchSize),
		slog.Int("concurrency", mu.concurrency),
		slog.Bool("preview", mu.preview),
	)

	outcomes := make([]Outcome, 0, len(mailboxes))

	for batch := range Batches(mailboxes, mu.batchSize) {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		if mu.preview {
			outcomes = append(outcomes, mu.previewBatch(batch)...)
		} else {
			outcomes = append(outcomes, mu.mutateBatch(ctx, batch)...)
		}

		// Boundary-only threshold check; in-flight work has already
		// completed because mutateBatch waits on the whole sub-batch.
		if mu.monitor.ShouldAbort() {
			mu.logger.Error("halting mutation",
				slog.Int64("errors", mu.monitor.Errors()),
				slog.Int("sub_batch", batch.Index),
			)

			return outcomes, mu.monitor.Err()
		}
	}

	return outcomes, nil
}

// previewBatch synthesizes successful outcomes without touching the
// external service.
func (mu *Mutator) previewBatch(batch Batch) []Outcome {
	outcomes := make([]Outcome, 0, len(batch.Mailboxes))
	for _, m := range batch.Mailboxes {
		outcomes = append(outcomes, Outcome{
			UPN:       m.UPN,
			Success:   true,
			Timestamp: mu.nowFunc(),
			Preview:   true,
		})
	}

	return outcomes
}

// mutateBatch runs one task per mailbox under the concurrency limit and
// blocks until every task in the sub-batch has finished. Task failures are
// recorded as outcomes and counted against the threshold; they never fail
// the group, so the barrier always sees the full sub-batch.
func (mu *Mutator) mutateBatch(ctx context.Context, batch Batch) []Outcome {
	var (
		mutex    gosync.Mutex
		outcomes = make([]Outcome, 0, len(batch.Mailboxes))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mu.concurrency)

	for _, m := range batch.Mailboxes {
		g.Go(func() error {
			outcome := Outcome{UPN: m.UPN, Timestamp: mu.nowFunc()}

			if err := mu.service.EnableLitigationHold(gctx, m.UPN); err != nil {
				outcome.ErrMsg = err.Error()
				mu.monitor.RecordFailure()

				mu.logger.Warn("enable failed",
					slog.String("upn", m.UPN),
					slog.String("error", err.Error()),
				)
			} else {
				outcome.Success = true

				mu.logger.Debug("hold enabled", slog.String("upn", m.UPN))
			}

			mutex.Lock()
			outcomes = append(outcomes, outcome)
			mutex.Unlock()

			return nil
		})
	}

	// Sub-batch barrier. Tasks never return errors, so Wait only serves
	// as the synchronization point.
	_ = g.Wait()

	return outcomes
}
