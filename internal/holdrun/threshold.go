package holdrun

import (
	"errors"
	"fmt"
)

// ErrThresholdExceeded is returned by a phase that halted because the
// accumulated error count crossed the configured maximum. Outcomes recorded
// before the halt are preserved for reporting.
var ErrThresholdExceeded = errors.New("holdrun: error threshold exceeded")

// ThresholdMonitor is the shared failure gate consulted at every batch
// boundary by both the reconciliation and mutation phases. All error
// accounting goes through RecordFailure, which backs onto the run's
// Counters.Errors atomic, so the count stays exact even when mutation
// workers fail concurrently.
//
// The abort predicate is errors > maxErrors && !continueOnErrors. With
// continueOnErrors set, processing continues regardless of the count and
// the final report carries the tally; no further cap applies.
type ThresholdMonitor struct {
	counters         *Counters
	maxErrors        int64
	continueOnErrors bool
}

// NewThresholdMonitor creates a monitor that trips once more than
// maxErrors failures have been recorded, unless continueOnErrors is set.
// The counters handle is shared with the rest of the run.
func NewThresholdMonitor(counters *Counters, maxErrors int, continueOnErrors bool) *ThresholdMonitor {
	return &ThresholdMonitor{
		counters:         counters,
		maxErrors:        int64(maxErrors),
		continueOnErrors: continueOnErrors,
	}
}

// RecordFailure increments the shared error counter. The counter is
// monotonically non-decreasing for the life of the run.
func (m *ThresholdMonitor) RecordFailure() {
	m.counters.Errors.Add(1)
}

// Errors returns the current failure count.
func (m *ThresholdMonitor) Errors() int64 {
	return m.counters.Errors.Load()
}

// ShouldAbort reports whether the calling phase must stop issuing new
// work. Callers invoke this only at batch and sub-batch boundaries, never
// mid-batch, so failure counting stays exact at each checkpoint.
func (m *ThresholdMonitor) ShouldAbort() bool {
	return m.Errors() > m.maxErrors && !m.continueOnErrors
}

// Err returns the fatal condition describing the tripped threshold.
func (m *ThresholdMonitor) Err() error {
	return fmt.Errorf("%w: %d errors (max %d)", ErrThresholdExceeded, m.Errors(), m.maxErrors)
}
