package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/itlusions/itlc/pkg/itlc/config"
)

// Session is the ephemeral state of one in-flight login attempt: the PKCE
// pair, the CSRF state, and the request parameters they are bound to. It
// is discarded when the flow terminates; a retry builds a fresh one.
type Session struct {
	CodeVerifier  string
	CodeChallenge string
	State         string
	RedirectURI   string
	IssuerURL     string
	ClientID      string
	Scopes        []string
}

// loginGate enforces at most one active Session per process. A second
// concurrent login fails instead of interleaving with the first.
var loginGate sync.Mutex

func acquireLoginGate() error {
	if !loginGate.TryLock() {
		return &AuthorizationError{Code: "login_in_progress", Description: "another login attempt is already running"}
	}
	return nil
}

func releaseLoginGate() {
	loginGate.Unlock()
}

// NewSession generates an independent PKCE pair and state value for one
// login attempt against the configured issuer.
func NewSession(cfg config.Config) (*Session, error) {
	verifier, challenge, err := newPKCEPair()
	if err != nil {
		return nil, err
	}
	state, err := randomToken(24)
	if err != nil {
		return nil, err
	}
	return &Session{
		CodeVerifier:  verifier,
		CodeChallenge: challenge,
		State:         state,
		RedirectURI:   cfg.RedirectURI(),
		IssuerURL:     cfg.Issuer(),
		ClientID:      cfg.ClientID,
		Scopes:        cfg.Scopes,
	}, nil
}

// newPKCEPair returns a 43-character URL-safe verifier from 256 bits of
// CSPRNG output and its S256 challenge.
func newPKCEPair() (string, string, error) {
	verifier, err := randomToken(32)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

func randomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
