package holdrun

import "time"

// Action classifies what the run did (or would do) for one mailbox. The
// classifications are mutually exclusive and every reported mailbox gets
// exactly one.
type Action string

const (
	ActionAlreadyOnHold    Action = "already_on_hold"
	ActionNoMailbox        Action = "no_mailbox"
	ActionPreviewWouldHold Action = "preview_would_enable"
	ActionEnabled          Action = "enabled"
	ActionFailed           Action = "failed"
	ActionNone             Action = "no_action_required"
)

// SubjectReport is one row of the detailed report: a mailbox joined with
// its reconciled status and mutation outcome, if any.
type SubjectReport struct {
	UPN         string
	DisplayName string
	LicenseSKUs []string
	HoldEnabled bool
	HasMailbox  bool
	Action      Action
	ErrMsg      string
	Timestamp   time.Time
}

// Summary is the run-level rollup.
type Summary struct {
	RunID         string    `json:"run_id"`
	Preview       bool      `json:"preview"`
	StartedAt     time.Time `json:"started_at"`
	Elapsed       string    `json:"elapsed"`
	TotalEligible int       `json:"total_eligible"`
	AlreadyOnHold int       `json:"already_on_hold"`
	NewlyEnabled  int       `json:"newly_enabled"`
	Failed        int       `json:"failed"`
	NoMailbox     int       `json:"no_mailbox"`
	TotalErrors   int64     `json:"total_errors"`
	HaltedEarly   bool      `json:"halted_early"`
	Counters      Snapshot  `json:"counters"`
}

// Report is the aggregator output: one row per input mailbox plus the
// summary.
type Report struct {
	Subjects []SubjectReport
	Summary  Summary
}

// Aggregate joins the reconciled mailbox set with the mutation outcomes by
// UPN and classifies every mailbox exactly once. Mailboxes never attempted
// because the run halted early carry no outcome and classify as
// no_action_required; haltedEarly marks the summary so readers know why.
func Aggregate(
	mailboxes []*Mailbox,
	outcomes []Outcome,
	counters *Counters,
	runID string,
	preview bool,
	startedAt time.Time,
	elapsed time.Duration,
	haltedEarly bool,
) *Report {
	byUPN := make(map[string]*Outcome, len(outcomes))
	for i := range outcomes {
		byUPN[outcomes[i].UPN] = &outcomes[i]
	}

	report := &Report{
		Subjects: make([]SubjectReport, 0, len(mailboxes)),
		Summary: Summary{
			RunID:         runID,
			Preview:       preview,
			StartedAt:     startedAt,
			Elapsed:       elapsed.Round(time.Millisecond).String(),
			TotalEligible: len(mailboxes),
			TotalErrors:   counters.Errors.Load(),
			HaltedEarly:   haltedEarly,
		},
	}

	for _, m := range mailboxes {
		row := SubjectReport{
			UPN:         m.UPN,
			DisplayName: m.DisplayName,
			LicenseSKUs: m.LicenseSKUs,
		}

		if m.Status != nil {
			row.HoldEnabled = m.Status.LitigationHoldEnabled
			row.HasMailbox = m.Status.HasMailbox
		}

		outcome := byUPN[m.UPN]
		row.Action = classify(m, outcome)

		if outcome != nil {
			row.ErrMsg = outcome.ErrMsg
			row.Timestamp = outcome.Timestamp
		}

		switch row.Action {
		case ActionAlreadyOnHold:
			report.Summary.AlreadyOnHold++
		case ActionPreviewWouldHold, ActionEnabled:
			report.Summary.NewlyEnabled++
		case ActionFailed:
			report.Summary.Failed++
		case ActionNoMailbox:
			report.Summary.NoMailbox++
		case ActionNone:
			// Counted only in TotalEligible.
		}

		report.Subjects = append(report.Subjects, row)
	}

	report.Summary.Counters = counters.Snapshot()

	return report
}

// classify maps one mailbox and its optional outcome to an action. The
// arms are ordered so each mailbox matches exactly one.
func classify(m *Mailbox, outcome *Outcome) Action {
	switch {
	case m.Status != nil && m.Status.LitigationHoldEnabled:
		return ActionAlreadyOnHold
	case m.Status == nil || !m.Status.HasMailbox:
		return ActionNoMailbox
	case outcome != nil && outcome.Preview:
		return ActionPreviewWouldHold
	case outcome != nil && outcome.Success:
		return ActionEnabled
	case outcome != nil:
		return ActionFailed
	default:
		return ActionNone
	}
}
