package holdrun

import "context"

// Directory enumerates the account population and the license catalog.
// Implemented by the exchange client.
type Directory interface {
	// ListMailboxes returns all mailboxes, optionally restricted to UPNs
	// with the given prefix. Paging is handled internally.
	ListMailboxes(ctx context.Context, upnPrefix string) ([]*Mailbox, error)

	// ListSkus returns the tenant's license catalog as skuID -> part number.
	ListSkus(ctx context.Context) (map[string]string, error)
}

// StatusService resolves and mutates per-mailbox litigation-hold state.
type StatusService interface {
	// HoldStatuses resolves hold state for many mailboxes in one call.
	// The returned map is keyed by UPN; absent keys mean the service knows
	// no mailbox for that account.
	HoldStatuses(ctx context.Context, upns []string) (map[string]HoldStatus, error)

	// HoldStatusOf resolves hold state for a single mailbox. Used as the
	// per-item fallback when a batch query fails.
	HoldStatusOf(ctx context.Context, upn string) (HoldStatus, error)

	// EnableLitigationHold turns the hold on for one mailbox. This is the
	// only externally mutating call the run makes.
	EnableLitigationHold(ctx context.Context, upn string) error
}
