package holdrun

import "sync/atomic"

// Counters aggregates process-wide run totals. A single Counters value is
// owned by the Runner and passed by handle into each phase; all fields are
// atomics because mutation workers update them concurrently. Counters are
// zeroed at run start and only ever read, never reset, afterwards.
type Counters struct {
	Processed     atomic.Int64
	Eligible      atomic.Int64
	AlreadyOnHold atomic.Int64
	NewlyEnabled  atomic.Int64
	Errors        atomic.Int64
	Skipped       atomic.Int64
}

// Snapshot is a plain-value copy of Counters for reporting and encoding.
type Snapshot struct {
	Processed     int64 `json:"processed"`
	Eligible      int64 `json:"eligible"`
	AlreadyOnHold int64 `json:"already_on_hold"`
	NewlyEnabled  int64 `json:"newly_enabled"`
	Errors        int64 `json:"errors"`
	Skipped       int64 `json:"skipped"`
}

// Snapshot returns a consistent-enough point-in-time copy of the counters.
// Individual loads are atomic; the run only reads the snapshot after both
// phases have completed, so cross-field skew is not observable.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Processed:     c.Processed.Load(),
		Eligible:      c.Eligible.Load(),
		AlreadyOnHold: c.AlreadyOnHold.Load(),
		NewlyEnabled:  c.NewlyEnabled.Load(),
		Errors:        c.Errors.Load(),
		Skipped:       c.Skipped.Load(),
	}
}
