package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/holdrun"
)

// mailboxResponse mirrors one entry of the admin API mailbox listing.
// Unexported; callers get holdrun.Mailbox via toMailbox() normalization.
type mailboxResponse struct {
	ID                string `json:"id"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
	AccountEnabled    bool   `json:"accountEnabled"`
	AssignedLicenses  []struct {
		SkuID string `json:"skuId"`
	} `json:"assignedLicenses"`
}

func (m *mailboxResponse) toMailbox() *holdrun.Mailbox {
	skus := make([]string, 0, len(m.AssignedLicenses))
	for _, l := range m.AssignedLicenses {
		skus = append(skus, l.SkuID)
	}

	return &holdrun.Mailbox{
		UPN:         m.UserPrincipalName,
		DisplayName: m.DisplayName,
		Enabled:     m.AccountEnabled,
		LicenseSKUs: skus,
	}
}

// mailboxListResponse wraps a page of GET /mailboxes with its continuation
// link.
type mailboxListResponse struct {
	Value    []mailboxResponse `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// skuResponse mirrors one entry of GET /skus.
type skuResponse struct {
	SkuID         string `json:"skuId"`
	SkuPartNumber string `json:"skuPartNumber"`
}

type skuListResponse struct {
	Value []skuResponse `json:"value"`
}

// holdRecord mirrors the hold-status payload, shared by the batch query
// and the single-mailbox endpoint.
type holdRecord struct {
	UserPrincipalName     string `json:"userPrincipalName"`
	LitigationHoldEnabled bool   `json:"litigationHoldEnabled"`
	LitigationHoldDate    string `json:"litigationHoldDate,omitempty"`
	LitigationHoldOwner   string `json:"litigationHoldOwner,omitempty"`
	HasMailbox            bool   `json:"hasMailbox"`
}

func (h *holdRecord) toStatus() holdrun.HoldStatus {
	status := holdrun.HoldStatus{
		LitigationHoldEnabled: h.LitigationHoldEnabled,
		Owner:                 h.LitigationHoldOwner,
		HasMailbox:            h.HasMailbox,
	}

	if h.LitigationHoldDate != "" {
		if ts, err := time.Parse(time.RFC3339, h.LitigationHoldDate); err == nil {
			status.EnabledDate = &ts
		}
	}

	return status
}

type holdQueryRequest struct {
	UserPrincipalNames []string `json:"userPrincipalNames"`
}

type holdQueryResponse struct {
	Value []holdRecord `json:"value"`
}

type holdUpdateRequest struct {
	LitigationHoldEnabled bool `json:"litigationHoldEnabled"`
}

// ListMailboxes returns every mailbox in the tenant, following
// @odata.nextLink continuations. upnPrefix, when non-empty, restricts the
// listing server-side to UPNs with that prefix.
func (c *Client) ListMailboxes(ctx context.Context, upnPrefix string) ([]*holdrun.Mailbox, error) {
	c.logger.Info("listing mailboxes", slog.String("upn_prefix", upnPrefix))

	path := "/mailboxes"
	if upnPrefix != "" {
		path += "?upnPrefix=" + url.QueryEscape(upnPrefix)
	}

	var mailboxes []*holdrun.Mailbox

	for path != "" {
		resp, err := c.Do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var page mailboxListResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()

		if err != nil {
			return nil, fmt.Errorf("exchange: decoding mailbox page: %w", err)
		}

		for i := range page.Value {
			mailboxes = append(mailboxes, page.Value[i].toMailbox())
		}

		path = relativeLink(page.NextLink, c.baseURL)
	}

	c.logger.Info("listed mailboxes", slog.Int("count", len(mailboxes)))

	return mailboxes, nil
}

// ListSkus returns the tenant's license catalog as skuID -> part number.
func (c *Client) ListSkus(ctx context.Context) (map[string]string, error) {
	c.logger.Info("listing license catalog")

	resp, err := c.Do(ctx, http.MethodGet, "/skus", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list skuListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("exchange: decoding sku response: %w", err)
	}

	skus := make(map[string]string, len(list.Value))
	for _, s := range list.Value {
		skus[s.SkuID] = s.SkuPartNumber
	}

	return skus, nil
}

// HoldStatuses resolves hold state for many mailboxes in one aggregate
// query. The returned map is keyed by UPN; accounts the service knows no
// mailbox for are absent.
func (c *Client) HoldStatuses(ctx context.Context, upns []string) (map[string]holdrun.HoldStatus, error) {
	body, err := json.Marshal(holdQueryRequest{UserPrincipalNames: upns})
	if err != nil {
		return nil, fmt.Errorf("exchange: encoding hold query: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/mailboxes/holds/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var qr holdQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("exchange: decoding hold query response: %w", err)
	}

	statuses := make(map[string]holdrun.HoldStatus, len(qr.Value))
	for i := range qr.Value {
		statuses[qr.Value[i].UserPrincipalName] = qr.Value[i].toStatus()
	}

	c.logger.Debug("hold statuses resolved",
		slog.Int("requested", len(upns)),
		slog.Int("resolved", len(statuses)),
	)

	return statuses, nil
}

// HoldStatusOf resolves hold state for a single mailbox. Used as the
// per-item fallback when an aggregate query fails.
func (c *Client) HoldStatusOf(ctx context.Context, upn string) (holdrun.HoldStatus, error) {
	path := "/mailboxes/" + url.PathEscape(upn) + "/hold"

	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return holdrun.HoldStatus{}, err
	}
	defer resp.Body.Close()

	var rec holdRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return holdrun.HoldStatus{}, fmt.Errorf("exchange: decoding hold response: %w", err)
	}

	return rec.toStatus(), nil
}

// EnableLitigationHold turns litigation hold on for one mailbox. This is
// the only mutating call the client exposes.
func (c *Client) EnableLitigationHold(ctx context.Context, upn string) error {
	body, err := json.Marshal(holdUpdateRequest{LitigationHoldEnabled: true})
	if err != nil {
		return fmt.Errorf("exchange: encoding hold update: %w", err)
	}

	path := "/mailboxes/" + url.PathEscape(upn) + "/hold"

	resp, err := c.Do(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp.Body.Close()

	return nil
}

// relativeLink strips the client's base URL from a continuation link so it
// can be passed back through Do. Absolute links pointing elsewhere are
// dropped to keep paging on the configured host.
func relativeLink(link, baseURL string) string {
	if link == "" {
		return ""
	}

	if rel, ok := strings.CutPrefix(link, baseURL); ok {
		return rel
	}

	if strings.HasPrefix(link, "/") {
		return link
	}

	return ""
}
