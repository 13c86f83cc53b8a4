package exchange

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Default OAuth2 endpoints and scope for app-only access.
const (
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	defaultScope   = "https://outlook.office365.com/.default"
)

// Credentials identifies the app registration used for client-credentials
// auth. All three fields are required.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Valid reports whether every required field is present.
func (c Credentials) Valid() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// ccTokenSource adapts an oauth2.TokenSource to the client's TokenSource
// interface. Refresh and caching are handled by the oauth2 package.
type ccTokenSource struct {
	src oauth2.TokenSource
}

func (s *ccTokenSource) Token() (string, error) {
	tok, err := s.src.Token()
	if err != nil {
		return "", fmt.Errorf("exchange: acquiring token: %w", err)
	}

	return tok.AccessToken, nil
}

// NewTokenSource builds a client-credentials token source for the tenant.
// Returns ErrNoCredentials when any field is missing so callers can fail
// before processing starts.
func NewTokenSource(ctx context.Context, creds Credentials) (TokenSource, error) {
	if !creds.Valid() {
		return nil, ErrNoCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     fmt.Sprintf(tokenURLFormat, creds.TenantID),
		Scopes:       []string{defaultScope},
	}

	// The clientcredentials TokenSource caches the token until expiry.
	return &ccTokenSource{src: cfg.TokenSource(ctx)}, nil
}
