package holdrun

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSkuID is the catalog SKU ID carried on assigned licenses; testSku is
// the part number it resolves to.
const (
	testSkuID = "6fd2c87f-b296-42f0-b197-1e91e994b900"
	testSku   = "ENTERPRISEPACK"
)

func testCatalog() map[string]string {
	return map[string]string{testSkuID: testSku}
}

func newScenarioRunner(t *testing.T, dir *fakeDirectory, svc *fakeService, cfg RunConfig) *Runner {
	t.Helper()

	if cfg.EligibleSKUs == nil {
		cfg.EligibleSKUs = map[string]string{testSku: "Office 365 E3"}
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2
		cfg.Concurrency = 2
	}

	if cfg.MaxErrors == 0 {
		cfg.MaxErrors = 10
	}

	cfg.RunID = "test-run"

	return NewRunner(dir, svc, cfg, testLogger(t))
}

// TestRunner_EndToEnd covers the canonical three-mailbox scenario: one
// already on hold, one needing action that succeeds, one needing action
// that fails.
func TestRunner_EndToEnd(t *testing.T) {
	dir := &fakeDirectory{
		skus: testCatalog(),
		mailboxes: []*Mailbox{
			{UPN: "held@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
			{UPN: "ok@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
			{UPN: "bad@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
		},
	}

	svc := newFakeService()
	svc.statuses["held@x.com"] = HoldStatus{LitigationHoldEnabled: true, HasMailbox: true}
	svc.statuses["ok@x.com"] = HoldStatus{HasMailbox: true}
	svc.statuses["bad@x.com"] = HoldStatus{HasMailbox: true}
	svc.enableErrs["bad@x.com"] = errors.New("mailbox locked")

	r := newScenarioRunner(t, dir, svc, RunConfig{})

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 1, report.Summary.AlreadyOnHold)
	assert.Equal(t, 1, report.Summary.NewlyEnabled)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.EqualValues(t, 1, report.Summary.TotalErrors)
	assert.Equal(t, 3, report.Summary.TotalEligible)
	assert.False(t, report.Summary.HaltedEarly)

	// Only the two needs-action mailboxes were attempted.
	assert.Len(t, svc.enableCalls, 2)
	assert.NotContains(t, svc.enableCalls, "held@x.com")
}

func TestRunner_EligibilityFilter(t *testing.T) {
	dir := &fakeDirectory{
		skus: testCatalog(),
		mailboxes: []*Mailbox{
			{UPN: "licensed@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
			{UPN: "unlicensed@x.com", Enabled: true, LicenseSKUs: []string{"FLOW_FREE"}},
			{UPN: "disabled@x.com", Enabled: false, LicenseSKUs: []string{testSkuID}},
			// Raw part number, not in the catalog: matched as-is.
			{UPN: "partnum@x.com", Enabled: true, LicenseSKUs: []string{testSku}},
		},
	}

	svc := newFakeService()
	svc.statuses["licensed@x.com"] = HoldStatus{HasMailbox: true}
	svc.statuses["partnum@x.com"] = HoldStatus{HasMailbox: true}

	r := newScenarioRunner(t, dir, svc, RunConfig{Preview: true})

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.TotalEligible)
	assert.EqualValues(t, 4, report.Summary.Counters.Processed)
	assert.EqualValues(t, 2, report.Summary.Counters.Skipped)
	assert.Equal(t, "licensed@x.com", report.Subjects[0].UPN)
}

func TestRunner_PreviewSummary(t *testing.T) {
	dir := &fakeDirectory{
		skus: testCatalog(),
		mailboxes: []*Mailbox{
			{UPN: "a@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
			{UPN: "b@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
		},
	}

	svc := newFakeService()
	svc.statuses["a@x.com"] = HoldStatus{HasMailbox: true}
	svc.statuses["b@x.com"] = HoldStatus{HasMailbox: true}

	r := newScenarioRunner(t, dir, svc, RunConfig{Preview: true})

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Summary.Preview)
	assert.Equal(t, 2, report.Summary.NewlyEnabled)
	assert.Empty(t, svc.enableCalls)
	assert.EqualValues(t, 0, report.Summary.Counters.NewlyEnabled, "live counter untouched in preview")
}

func TestRunner_PreconditionFailure(t *testing.T) {
	dir := &fakeDirectory{skusErr: errors.New("401 unauthorized")}

	r := newScenarioRunner(t, dir, newFakeService(), RunConfig{})

	report, err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Nil(t, report)
}

func TestRunner_ThresholdHaltPreservesPartialReport(t *testing.T) {
	mailboxes := make([]*Mailbox, 0, 6)
	svc := newFakeService()

	for _, m := range makeMailboxes(6) {
		m.Enabled = true
		m.LicenseSKUs = []string{testSkuID}
		mailboxes = append(mailboxes, m)
		svc.statuses[m.UPN] = HoldStatus{HasMailbox: true}
		svc.enableErrs[m.UPN] = errors.New("denied")
	}

	dir := &fakeDirectory{skus: testCatalog(), mailboxes: mailboxes}

	r := newScenarioRunner(t, dir, svc, RunConfig{MaxErrors: 1})

	report, err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrThresholdExceeded)
	require.NotNil(t, report, "partial results preserved")

	assert.True(t, report.Summary.HaltedEarly)
	assert.Len(t, report.Subjects, 6, "every mailbox still reported")

	// The batch-size override (2) caps the mutation sub-batch: the first
	// sub-batch records 2 failures, trips the threshold, and the rest are
	// reported without an outcome.
	assert.Equal(t, 2, report.Summary.Failed)

	var none int

	for _, row := range report.Subjects {
		if row.Action == ActionNone {
			none++
		}
	}

	assert.Equal(t, 4, none)
}

func TestRunner_ConfirmDeclinedCancelsRun(t *testing.T) {
	dir := &fakeDirectory{
		skus: testCatalog(),
		mailboxes: []*Mailbox{
			{UPN: "a@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
		},
	}

	svc := newFakeService()
	svc.statuses["a@x.com"] = HoldStatus{HasMailbox: true}

	r := newScenarioRunner(t, dir, svc, RunConfig{})

	var askedWith int

	r.Confirm = func(needsAction int) bool {
		askedWith = needsAction

		return false
	}

	report, err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrCanceled)
	require.NotNil(t, report)

	assert.Equal(t, 1, askedWith)
	assert.Empty(t, svc.enableCalls, "declined confirmation must not mutate")
	assert.Equal(t, ActionNone, report.Subjects[0].Action)
}

func TestRunner_ConfirmSkippedInPreview(t *testing.T) {
	dir := &fakeDirectory{
		skus: testCatalog(),
		mailboxes: []*Mailbox{
			{UPN: "a@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
		},
	}

	svc := newFakeService()
	svc.statuses["a@x.com"] = HoldStatus{HasMailbox: true}

	r := newScenarioRunner(t, dir, svc, RunConfig{Preview: true})
	r.Confirm = func(int) bool {
		t.Fatal("preview must not prompt")

		return false
	}

	_, err := r.Run(context.Background())
	require.NoError(t, err)
}

func TestRunner_UPNPrefixFilter(t *testing.T) {
	dir := &fakeDirectory{
		skus: testCatalog(),
		mailboxes: []*Mailbox{
			{UPN: "sales.a@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
			{UPN: "eng.b@x.com", Enabled: true, LicenseSKUs: []string{testSkuID}},
		},
	}

	svc := newFakeService()
	svc.statuses["sales.a@x.com"] = HoldStatus{HasMailbox: true}

	r := newScenarioRunner(t, dir, svc, RunConfig{Preview: true, UPNPrefix: "sales."})

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalEligible)
}
