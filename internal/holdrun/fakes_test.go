package holdrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

// testLogger returns a quiet logger for engine tests.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeService is an in-memory StatusService recording every call.
// Error maps inject failures per UPN; batchErr fails every aggregate query
// to force the per-mailbox fallback.
type fakeService struct {
	mu sync.Mutex

	statuses   map[string]HoldStatus
	batchErr   error
	singleErrs map[string]error
	enableErrs map[string]error

	batchCalls  int
	singleCalls []string
	enableCalls []string

	enableDelay time.Duration

	inFlight    int
	maxInFlight int
}

func newFakeService() *fakeService {
	return &fakeService{
		statuses:   make(map[string]HoldStatus),
		singleErrs: make(map[string]error),
		enableErrs: make(map[string]error),
	}
}

func (f *fakeService) HoldStatuses(_ context.Context, upns []string) (map[string]HoldStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchCalls++

	if f.batchErr != nil {
		return nil, f.batchErr
	}

	out := make(map[string]HoldStatus, len(upns))
	for _, upn := range upns {
		if s, ok := f.statuses[upn]; ok {
			out[upn] = s
		}
	}

	return out, nil
}

func (f *fakeService) HoldStatusOf(_ context.Context, upn string) (HoldStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.singleCalls = append(f.singleCalls, upn)

	if err := f.singleErrs[upn]; err != nil {
		return HoldStatus{}, err
	}

	s, ok := f.statuses[upn]
	if !ok {
		return HoldStatus{}, fmt.Errorf("no mailbox for %s", upn)
	}

	return s, nil
}

func (f *fakeService) EnableLitigationHold(_ context.Context, upn string) error {
	f.mu.Lock()
	f.enableCalls = append(f.enableCalls, upn)
	f.inFlight++

	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}

	err := f.enableErrs[upn]
	delay := f.enableDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	return err
}

// fakeDirectory is an in-memory Directory.
type fakeDirectory struct {
	mailboxes []*Mailbox
	skus      map[string]string
	listErr   error
	skusErr   error
}

func (f *fakeDirectory) ListMailboxes(_ context.Context, upnPrefix string) ([]*Mailbox, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	if upnPrefix == "" {
		return f.mailboxes, nil
	}

	var out []*Mailbox

	for _, m := range f.mailboxes {
		if len(m.UPN) >= len(upnPrefix) && m.UPN[:len(upnPrefix)] == upnPrefix {
			out = append(out, m)
		}
	}

	return out, nil
}

func (f *fakeDirectory) ListSkus(_ context.Context) (map[string]string, error) {
	if f.skusErr != nil {
		return nil, f.skusErr
	}

	return f.skus, nil
}
