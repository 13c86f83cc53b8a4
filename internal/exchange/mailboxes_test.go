package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMailboxes_Paged(t *testing.T) {
	var srv *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/mailboxes", func(w http.ResponseWriter, r *http.Request) {
		page := map[string]any{
			"value": []map[string]any{
				{
					"userPrincipalName": "a@contoso.com",
					"displayName":       "Alice",
					"accountEnabled":    true,
					"assignedLicenses":  []map[string]string{{"skuId": "sku-e3"}},
				},
			},
			"@odata.nextLink": srv.URL + "/mailboxes/page2",
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	})
	mux.HandleFunc("/mailboxes/page2", func(w http.ResponseWriter, _ *http.Request) {
		page := map[string]any{
			"value": []map[string]any{
				{
					"userPrincipalName": "b@contoso.com",
					"displayName":       "Bob",
					"accountEnabled":    false,
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	mailboxes, err := client.ListMailboxes(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, mailboxes, 2)

	assert.Equal(t, "a@contoso.com", mailboxes[0].UPN)
	assert.Equal(t, []string{"sku-e3"}, mailboxes[0].LicenseSKUs)
	assert.True(t, mailboxes[0].Enabled)

	assert.Equal(t, "b@contoso.com", mailboxes[1].UPN)
	assert.False(t, mailboxes[1].Enabled)
	assert.Empty(t, mailboxes[1].LicenseSKUs)
}

func TestListMailboxes_PrefixFilterForwarded(t *testing.T) {
	var gotPrefix string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefix = r.URL.Query().Get("upnPrefix")
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.ListMailboxes(context.Background(), "sales.")
	require.NoError(t, err)
	assert.Equal(t, "sales.", gotPrefix)
}

func TestListSkus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[
			{"skuId":"sku-e3","skuPartNumber":"ENTERPRISEPACK"},
			{"skuId":"sku-e5","skuPartNumber":"ENTERPRISEPREMIUM"}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	skus, err := client.ListSkus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"sku-e3": "ENTERPRISEPACK",
		"sku-e5": "ENTERPRISEPREMIUM",
	}, skus)
}

func TestHoldStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mailboxes/holds/query", r.URL.Path)

		var req holdQueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a@x.com", "b@x.com"}, req.UserPrincipalNames)

		_, _ = w.Write([]byte(`{"value":[
			{"userPrincipalName":"a@x.com","litigationHoldEnabled":true,
			 "litigationHoldDate":"2025-06-01T12:00:00Z","litigationHoldOwner":"admin","hasMailbox":true}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	statuses, err := client.HoldStatuses(context.Background(), []string{"a@x.com", "b@x.com"})
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	status := statuses["a@x.com"]
	assert.True(t, status.LitigationHoldEnabled)
	assert.True(t, status.HasMailbox)
	assert.Equal(t, "admin", status.Owner)
	require.NotNil(t, status.EnabledDate)
	assert.Equal(t, 2025, status.EnabledDate.Year())
}

func TestHoldStatusOf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mailboxes/a@x.com/hold", r.URL.Path)
		_, _ = w.Write([]byte(`{"userPrincipalName":"a@x.com","litigationHoldEnabled":false,"hasMailbox":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	status, err := client.HoldStatusOf(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, status.LitigationHoldEnabled)
	assert.True(t, status.HasMailbox)
	assert.Nil(t, status.EnabledDate)
}

func TestEnableLitigationHold(t *testing.T) {
	var gotBody holdUpdateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/mailboxes/a@x.com/hold", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	require.NoError(t, client.EnableLitigationHold(context.Background(), "a@x.com"))
	assert.True(t, gotBody.LitigationHoldEnabled)
}

func TestRelativeLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"empty", "", ""},
		{"same host", "https://api.example.com/base/mailboxes?page=2", "/mailboxes?page=2"},
		{"already relative", "/mailboxes?page=2", "/mailboxes?page=2"},
		{"foreign host dropped", "https://evil.example.com/mailboxes", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relativeLink(tt.link, "https://api.example.com/base"))
		})
	}
}
