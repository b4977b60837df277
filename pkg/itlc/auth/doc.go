// Package auth implements the OIDC authorization code + PKCE login flow
// against a Keycloak realm: session setup, the one-shot local callback
// listener, issuer discovery validation, the code-for-token exchange, and
// the client-credentials grant for automation principals.
package auth
