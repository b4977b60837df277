package auth

import (
	"fmt"
	"time"
)

// DiscoveryValidationError reports a discovery document that is missing a
// required field or names a different issuer than the one configured.
// These are fatal and never retried.
type DiscoveryValidationError struct {
	Issuer string
	Field  string
	Detail string
}

func (e *DiscoveryValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("discovery document for %s is missing required field %q", e.Issuer, e.Field)
	}
	return fmt.Sprintf("discovery validation failed for %s: %s", e.Issuer, e.Detail)
}

// AuthorizationError reports a failed authorization step: an explicit
// error callback from the provider, a state mismatch, or a second login
// attempted while one is already in flight.
type AuthorizationError struct {
	Code        string
	Description string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// TimeoutError reports that no callback arrived within the login deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no authorization callback received within %s", e.After)
}

// TokenExchangeError reports a failed code-for-token exchange: a
// non-success status, a malformed response, or a missing required field.
// The message names the endpoint and status but never token material.
type TokenExchangeError struct {
	Endpoint   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TokenExchangeError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("token exchange against %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("token exchange against %s failed: %s", e.Endpoint, e.Detail)
	default:
		return fmt.Sprintf("token exchange against %s failed: %v", e.Endpoint, e.Err)
	}
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }
