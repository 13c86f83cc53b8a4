// Package holdrun implements the bulk litigation-hold orchestrator: an
// adaptive configuration advisor, a two-phase pipeline (status
// reconciliation, then mutation) over ordered batches, a bounded worker
// pool for the mutation phase, and a cross-phase error-threshold circuit
// breaker that can halt the run.
package holdrun

import "time"

// Mailbox is one account in the scanned population. Identity fields are
// immutable during a run; Status is attached by the reconciliation phase.
type Mailbox struct {
	UPN         string
	DisplayName string
	Enabled     bool
	LicenseSKUs []string

	Status *HoldStatus
}

// HoldStatus is the per-mailbox compliance state resolved from the status
// service. HasMailbox is false when the account has no target resource to
// place on hold (unlicensed, mailbox not provisioned, or status lookup
// failed for that account).
type HoldStatus struct {
	LitigationHoldEnabled bool
	EnabledDate           *time.Time
	Owner                 string
	HasMailbox            bool
}

// Outcome records the result of one mutation attempt (or its preview
// synthesis). Exactly one Outcome exists per mailbox that entered the
// mutation phase; it is immutable once recorded.
type Outcome struct {
	UPN       string
	Success   bool
	ErrMsg    string
	Timestamp time.Time
	Preview   bool
}

// Batch is an ordered, contiguous window of mailboxes plus its 1-based
// sequence index. Batches exist only during iteration.
type Batch struct {
	Index     int
	Mailboxes []*Mailbox
}
