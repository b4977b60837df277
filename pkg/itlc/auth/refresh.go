package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// Refresh redeems the refresh token of prev for a new TokenSet. The new
// set supersedes prev; prev is never mutated. Callers typically refresh
// when prev is within the configured refresh window.
func (a *Authenticator) Refresh(ctx context.Context, prev TokenSet) (*TokenSet, error) {
	if prev.RefreshToken == "" {
		return nil, errors.New("no refresh token available")
	}

	doc, err := Discover(ctx, a.cfg.Issuer(), a.httpClient)
	if err != nil {
		return nil, err
	}

	oauthCfg := oauth2.Config{
		ClientID: a.cfg.ClientID,
		Endpoint: doc.Endpoint(),
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	// A token with only the refresh_token set forces the source to hit
	// the token endpoint instead of returning a cached access token.
	src := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: prev.RefreshToken})
	refreshed, err := src.Token()
	if err != nil {
		return nil, &TokenExchangeError{Endpoint: doc.TokenEndpoint, Detail: "refresh failed", Err: err}
	}

	ts := tokenSetFromOAuth2(refreshed, time.Now())
	if ts.IDToken == "" {
		ts.IDToken = prev.IDToken
	}
	if ts.Scope == "" {
		ts.Scope = prev.Scope
	}
	return &ts, nil
}
