package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/itlusions/itlc/pkg/itlc/config"
)

// Authenticator orchestrates one interactive login: session setup,
// callback listener, browser hand-off, bounded wait, code exchange.
type Authenticator struct {
	cfg        config.Config
	log        *zap.SugaredLogger
	httpClient *http.Client

	// RequireIDToken makes a token response without an id_token a fatal
	// exchange error. The kubectl credential path needs this.
	RequireIDToken bool

	// test seams
	openBrowser func(string) error
	prompt      io.Writer
}

func NewAuthenticator(cfg config.Config, log *zap.SugaredLogger) (*Authenticator, error) {
	client, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Authenticator{
		cfg:         cfg,
		log:         log,
		httpClient:  client,
		openBrowser: openBrowser,
		prompt:      os.Stderr,
	}, nil
}

// AuthorizationURL assembles the browser-facing authorization request
// with the S256 challenge and the session's CSRF state.
func AuthorizationURL(session *Session, endpoint oauth2.Endpoint) string {
	oauthCfg := oauth2.Config{
		ClientID:    session.ClientID,
		Endpoint:    endpoint,
		RedirectURL: session.RedirectURI,
		Scopes:      session.Scopes,
	}
	return oauthCfg.AuthCodeURL(session.State,
		oauth2.SetAuthURLParam("code_challenge", session.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Login runs the full authorization-code + PKCE flow and returns the
// resulting TokenSet. At most one login may be in flight per process.
func (a *Authenticator) Login(ctx context.Context) (*TokenSet, error) {
	if err := acquireLoginGate(); err != nil {
		return nil, err
	}
	defer releaseLoginGate()

	session, err := NewSession(a.cfg)
	if err != nil {
		return nil, err
	}

	// Bind the port before any network I/O so a port held by a stale
	// session fails the attempt fast.
	listener, err := StartCallbackListener(session, a.cfg.CallbackAddr())
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = listener.Close()
	}()

	doc, err := Discover(ctx, session.IssuerURL, a.httpClient)
	if err != nil {
		return nil, err
	}

	authURL := AuthorizationURL(session, doc.Endpoint())
	_, _ = fmt.Fprintf(a.prompt, "Opening your browser for authentication.\nIf it does not open, visit:\n  %s\n", authURL)
	if err := a.openBrowser(authURL); err != nil {
		// Not fatal: the URL is printed for manual navigation.
		a.log.Debugw("failed to open browser", "error", err)
	}

	code, err := listener.Wait(ctx, a.cfg.LoginTimeoutDuration())
	if err != nil {
		return nil, err
	}

	ts, err := Exchange(ctx, a.httpClient, session, doc.Endpoint(), code)
	if err != nil {
		return nil, err
	}
	if a.RequireIDToken && ts.IDToken == "" {
		return nil, &TokenExchangeError{Endpoint: doc.TokenEndpoint, Detail: "response missing id_token"}
	}
	return ts, nil
}
