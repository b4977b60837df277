package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Exchange redeems an authorization code for a TokenSet with a single
// synchronous POST to the token endpoint, binding the original PKCE
// verifier. No retries: a failure surfaces immediately and the caller may
// start a whole new flow.
func Exchange(ctx context.Context, client *http.Client, session *Session, endpoint oauth2.Endpoint, code string) (*TokenSet, error) {
	oauthCfg := oauth2.Config{
		ClientID:    session.ClientID,
		Endpoint:    endpoint,
		RedirectURL: session.RedirectURI,
	}
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}

	token, err := oauthCfg.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", session.CodeVerifier),
	)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			detail := retrieveErr.ErrorCode
			if retrieveErr.ErrorDescription != "" {
				detail += ": " + retrieveErr.ErrorDescription
			}
			if detail == "" {
				detail = "non-success response"
			}
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, &TokenExchangeError{
				Endpoint:   endpoint.TokenURL,
				StatusCode: status,
				Detail:     detail,
				Err:        err,
			}
		}
		return nil, &TokenExchangeError{Endpoint: endpoint.TokenURL, Err: err}
	}

	ts := tokenSetFromOAuth2(token, time.Now())
	if ts.AccessToken == "" {
		return nil, &TokenExchangeError{Endpoint: endpoint.TokenURL, Detail: "response missing access_token"}
	}
	return &ts, nil
}
