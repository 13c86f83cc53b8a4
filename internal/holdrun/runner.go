package holdrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrPrecondition marks a run that failed before any phase started:
// missing credentials or no connectivity to a required service.
var ErrPrecondition = errors.New("holdrun: precondition failed")

// ErrCanceled is returned when the operator declined the live-mode
// confirmation. Not a failure; callers exit zero.
var ErrCanceled = errors.New("holdrun: canceled by operator")

// RunConfig carries everything the Runner needs beyond its collaborators.
// BatchSize and Concurrency of zero mean "let the advisor decide from the
// population size and resource hints".
type RunConfig struct {
	BatchSize   int
	Concurrency int

	MemoryHintMB      int
	BandwidthHintMbps int

	// Preview suppresses all mutating calls and synthesizes outcomes.
	Preview bool

	MaxErrors        int
	ContinueOnErrors bool

	// EligibleSKUs maps license SKU part numbers that entitle a mailbox
	// to litigation hold to their plan display names.
	EligibleSKUs map[string]string

	// UPNPrefix optionally restricts enumeration to matching accounts.
	UPNPrefix string

	RunID string
}

// Runner drives the whole pipeline from a single coordinating goroutine:
// enumeration, eligibility filtering, status reconciliation, mutation, and
// aggregation. Only the mutation phase fans out, and only under the
// configured concurrency limit.
type Runner struct {
	directory Directory
	service   StatusService
	cfg       RunConfig
	logger    *slog.Logger

	// Progress, when set, receives per-batch reconciliation progress.
	Progress func(done, total int)

	// Confirm, when set, is consulted once before live mutation with the
	// size of the needs-action set; returning false cancels the run.
	// Never called in preview mode or when the set is empty.
	Confirm func(needsAction int) bool

	nowFunc func() time.Time
}

// NewRunner assembles a pipeline coordinator.
func NewRunner(directory Directory, service StatusService, cfg RunConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		directory: directory,
		service:   service,
		cfg:       cfg,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Run executes the pipeline and always returns a Report when processing
// started, even when the run halted on the error threshold; the error then
// wraps ErrThresholdExceeded. A nil report is only possible together with
// a non-nil error (precondition or enumeration failure).
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	startedAt := r.nowFunc()
	counters := &Counters{}
	monitor := NewThresholdMonitor(counters, r.cfg.MaxErrors, r.cfg.ContinueOnErrors)

	// Connectivity probe before any phase: a tenant with no reachable
	// directory service fails fast instead of mid-run. The catalog also
	// resolves assigned SKU IDs to part numbers during filtering.
	catalog, err := r.directory.ListSkus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: license catalog unreachable: %v", ErrPrecondition, err)
	}

	mailboxes, err := r.directory.ListMailboxes(ctx, r.cfg.UPNPrefix)
	if err != nil {
		return nil, fmt.Errorf("enumerating mailboxes: %w", err)
	}

	counters.Processed.Store(int64(len(mailboxes)))

	eligible := r.filterEligible(mailboxes, catalog)
	counters.Eligible.Store(int64(len(eligible)))
	counters.Skipped.Store(int64(len(mailboxes) - len(eligible)))

	advice := r.effectiveAdvice(len(mailboxes))

	r.logger.Info("population scanned",
		slog.Int("total", len(mailboxes)),
		slog.Int("eligible", len(eligible)),
		slog.Int("batch_size", advice.BatchSize),
		slog.Int("concurrency", advice.Concurrency),
	)

	// Phase 1: status reconciliation.
	reconciler := NewReconciler(r.service, monitor, advice, r.logger, r.Progress)

	haltedEarly := false

	if err := reconciler.Run(ctx, eligible); err != nil {
		if !errors.Is(err, ErrThresholdExceeded) {
			return nil, err
		}

		haltedEarly = true
	}

	for _, m := range eligible {
		if m.Status != nil && m.Status.LitigationHoldEnabled {
			counters.AlreadyOnHold.Add(1)
		}
	}

	// Phase 2: mutation over the needs-action subset, unless phase 1
	// already tripped the threshold.
	var (
		outcomes []Outcome
		canceled bool
	)

	if !haltedEarly {
		needsAction := filterNeedsAction(eligible)

		if r.needsConfirmation(needsAction) && !r.Confirm(len(needsAction)) {
			canceled = true
		} else {
			mutator := NewMutator(r.service, monitor, advice, r.cfg.Preview, r.logger)

			outcomes, err = mutator.Run(ctx, needsAction)
			if err != nil {
				if !errors.Is(err, ErrThresholdExceeded) {
					return nil, err
				}

				haltedEarly = true
			}

			for _, o := range outcomes {
				if o.Success && !o.Preview {
					counters.NewlyEnabled.Add(1)
				}
			}
		}
	}

	report := Aggregate(
		eligible, outcomes, counters,
		r.cfg.RunID, r.cfg.Preview,
		startedAt, r.nowFunc().Sub(startedAt),
		haltedEarly,
	)

	switch {
	case canceled:
		return report, ErrCanceled
	case haltedEarly:
		return report, monitor.Err()
	default:
		return report, nil
	}
}

// effectiveAdvice computes advisor output for the population and applies
// explicit overrides on top.
func (r *Runner) effectiveAdvice(total int) Advice {
	advice := Advise(total, r.cfg.MemoryHintMB, r.cfg.BandwidthHintMbps)

	for _, warning := range advice.Warnings {
		r.logger.Warn(warning)
	}

	if r.cfg.BatchSize > 0 {
		advice.BatchSize = r.cfg.BatchSize
	}

	if r.cfg.Concurrency > 0 {
		advice.Concurrency = r.cfg.Concurrency
	}

	return advice
}

// needsConfirmation reports whether the Confirm hook applies: live mode,
// hook present, and something to do.
func (r *Runner) needsConfirmation(needsAction []*Mailbox) bool {
	return !r.cfg.Preview && r.Confirm != nil && len(needsAction) > 0
}

// filterEligible keeps enabled accounts holding at least one SKU from the
// eligibility table. Assigned licenses are SKU IDs; the catalog resolves
// them to part numbers before the table lookup. An ID the catalog does not
// know is matched against the table as-is, which also admits populations
// that already carry part numbers.
func (r *Runner) filterEligible(mailboxes []*Mailbox, catalog map[string]string) []*Mailbox {
	eligible := make([]*Mailbox, 0, len(mailboxes))

	for _, m := range mailboxes {
		if !m.Enabled {
			continue
		}

		for _, sku := range m.LicenseSKUs {
			partNumber, ok := catalog[sku]
			if !ok {
				partNumber = sku
			}

			if _, ok := r.cfg.EligibleSKUs[partNumber]; ok {
				eligible = append(eligible, m)

				break
			}
		}
	}

	return eligible
}

// filterNeedsAction keeps reconciled mailboxes that have a target resource
// but no hold yet.
func filterNeedsAction(mailboxes []*Mailbox) []*Mailbox {
	needs := make([]*Mailbox, 0, len(mailboxes))

	for _, m := range mailboxes {
		if m.Status != nil && m.Status.HasMailbox && !m.Status.LitigationHoldEnabled {
			needs = append(needs, m)
		}
	}

	return needs
}
