package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// defaultExpiresIn applies when the token response omits expires_in.
const defaultExpiresIn = 3600 * time.Second

// TokenSet is the immutable result of one token grant. Refreshing
// produces a new TokenSet; the old one is superseded, never mutated.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        string
	ExpiresAt    time.Time
}

// Expired reports whether the set is past its expiry.
func (t TokenSet) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// NearExpiry reports whether the set expires within window. Callers use
// it to refresh proactively; the set itself is still valid.
func (t TokenSet) NearExpiry(now time.Time, window time.Duration) bool {
	return !t.ExpiresAt.After(now.Add(window))
}

// Bearer returns the token kubectl should present: the ID token when the
// provider issued one, the access token otherwise.
func (t TokenSet) Bearer() string {
	if t.IDToken != "" {
		return t.IDToken
	}
	return t.AccessToken
}

// tokenSetFromOAuth2 normalizes an oauth2 token into a TokenSet,
// defaulting the token type to Bearer and the expiry to one hour out.
func tokenSetFromOAuth2(token *oauth2.Token, now time.Time) TokenSet {
	ts := TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
	if ts.TokenType == "" {
		ts.TokenType = "Bearer"
	}
	if ts.ExpiresAt.IsZero() {
		ts.ExpiresAt = now.Add(defaultExpiresIn)
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		ts.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	return ts
}
