package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DiscoveryDocument is the subset of the issuer's well-known
// openid-configuration this flow depends on.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

// Endpoint returns the discovered endpoints in oauth2 form.
func (d *DiscoveryDocument) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  d.AuthorizationEndpoint,
		TokenURL: d.TokenEndpoint,
	}
}

// Discover fetches {issuer}/.well-known/openid-configuration and validates
// it: the document's issuer must equal the configured issuer exactly and
// the authorization and token endpoints must be present. Validation
// failures are fatal and not retried.
func Discover(ctx context.Context, issuer string, client *http.Client) (*DiscoveryDocument, error) {
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("failed to fetch discovery document for %s: %w", issuer, err)
		}
		// go-oidc rejects issuer mismatches and malformed documents here.
		return nil, &DiscoveryValidationError{Issuer: issuer, Detail: err.Error()}
	}

	var doc DiscoveryDocument
	if err := provider.Claims(&doc); err != nil {
		return nil, &DiscoveryValidationError{Issuer: issuer, Detail: fmt.Sprintf("malformed discovery document: %v", err)}
	}
	for field, value := range map[string]string{
		"issuer":                 doc.Issuer,
		"authorization_endpoint": doc.AuthorizationEndpoint,
		"token_endpoint":         doc.TokenEndpoint,
	} {
		if value == "" {
			return nil, &DiscoveryValidationError{Issuer: issuer, Field: field}
		}
	}
	if doc.Issuer != issuer {
		return nil, &DiscoveryValidationError{
			Issuer: issuer,
			Detail: fmt.Sprintf("document issuer %q does not match configured issuer", doc.Issuer),
		}
	}
	return &doc, nil
}
