package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testSession() *Session {
	return &Session{
		CodeVerifier:  "test-verifier-test-verifier-test-verifier-1",
		CodeChallenge: "challenge",
		State:         "state",
		RedirectURI:   "http://localhost:8765/callback",
		ClientID:      "kubernetes-oidc",
	}
}

func TestExchangeSuccess(t *testing.T) {
	session := testSession()
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"code":          r.PostForm.Get("code"),
			"code_verifier": r.PostForm.Get("code_verifier"),
			"redirect_uri":  r.PostForm.Get("redirect_uri"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "at",
			"refresh_token": "rt",
			"id_token":      "idt",
			"token_type":    "Bearer",
			"expires_in":    300,
			"scope":         "openid profile",
		})
	}))
	defer srv.Close()

	ts, err := Exchange(context.Background(), srv.Client(), session,
		oauth2.Endpoint{TokenURL: srv.URL + "/token"}, "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.Equal(t, "auth-code", gotForm["code"])
	assert.Equal(t, session.CodeVerifier, gotForm["code_verifier"])
	assert.Equal(t, session.RedirectURI, gotForm["redirect_uri"])

	assert.Equal(t, "at", ts.AccessToken)
	assert.Equal(t, "rt", ts.RefreshToken)
	assert.Equal(t, "idt", ts.IDToken)
	assert.Equal(t, "openid profile", ts.Scope)
	assert.False(t, ts.ExpiresAt.IsZero())
}

func TestExchangeProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "code expired",
		})
	}))
	defer srv.Close()

	_, err := Exchange(context.Background(), srv.Client(), testSession(),
		oauth2.Endpoint{TokenURL: srv.URL + "/token"}, "stale-code")

	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	assert.Contains(t, exchangeErr.Detail, "invalid_grant")
	assert.Contains(t, exchangeErr.Detail, "code expired")
	assert.Equal(t, srv.URL+"/token", exchangeErr.Endpoint)
}

func TestExchangeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"token_type": "Bearer"})
	}))
	defer srv.Close()

	_, err := Exchange(context.Background(), srv.Client(), testSession(),
		oauth2.Endpoint{TokenURL: srv.URL + "/token"}, "auth-code")

	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
}

func TestExchangeUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := oauth2.Endpoint{TokenURL: srv.URL + "/token"}
	srv.Close()

	_, err := Exchange(context.Background(), nil, testSession(), endpoint, "auth-code")
	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Error(t, exchangeErr.Err)
}
