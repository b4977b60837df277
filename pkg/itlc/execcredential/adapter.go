// Package execcredential implements the Kubernetes credential-exec
// protocol: kubectl invokes itlc as an external process and parses its
// standard output as a client.authentication.k8s.io/v1beta1
// ExecCredential document. Stdout carries exactly that document and
// nothing else; diagnostics go to stderr.
package execcredential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	clientauthv1beta1 "k8s.io/client-go/pkg/apis/clientauthentication/v1beta1"

	"github.com/itlusions/itlc/pkg/itlc/auth"
	"github.com/itlusions/itlc/pkg/itlc/cache"
	"github.com/itlusions/itlc/pkg/itlc/config"
)

const execCredentialAPIVersion = "client.authentication.k8s.io/v1beta1"

// ProtocolModeError reports that the adapter was invoked without the
// interactive capability the browser flow depends on. It is raised
// before any network I/O.
type ProtocolModeError struct{}

func (e *ProtocolModeError) Error() string {
	return "credential plugin requires interactive mode: run kubectl in a terminal (interactiveMode IfAvailable or Always)"
}

// LoginFunc performs the full interactive flow when the cache cannot
// serve the request.
type LoginFunc func(ctx context.Context) (*auth.TokenSet, error)

// Adapter produces ExecCredential documents from cached or freshly
// acquired token sets.
type Adapter struct {
	cfg   config.Config
	store cache.Store
	login LoginFunc
	log   *zap.SugaredLogger

	// test seams
	getenv func(string) string
	nowFn  func() time.Time
}

func New(cfg config.Config, store cache.Store, login LoginFunc, log *zap.SugaredLogger) *Adapter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Adapter{cfg: cfg, store: store, login: login, log: log}
}

func (a *Adapter) env(key string) string {
	if a.getenv != nil {
		return a.getenv(key)
	}
	return os.Getenv(key)
}

func (a *Adapter) now() time.Time {
	if a.nowFn != nil {
		return a.nowFn()
	}
	return time.Now()
}

// interactiveCapable checks the invocation environment for the signal
// that a browser hand-off is possible: either the legacy
// KUBECTL_EXEC_INTERACTIVE_MODE variable or an ExecCredential input in
// KUBERNETES_EXEC_INFO whose spec declares interactive true.
func (a *Adapter) interactiveCapable() bool {
	if a.env("KUBECTL_EXEC_INTERACTIVE_MODE") == "IfAvailable" {
		return true
	}
	info := a.env("KUBERNETES_EXEC_INFO")
	if info == "" {
		return false
	}
	var in clientauthv1beta1.ExecCredential
	if err := json.Unmarshal([]byte(info), &in); err != nil {
		return false
	}
	return in.Spec.Interactive
}

// Run writes exactly one ExecCredential JSON document to out, serving a
// cached unexpired token set when one exists and running the full login
// flow otherwise. On any error nothing at all is written to out.
func (a *Adapter) Run(ctx context.Context, out io.Writer) error {
	if !a.interactiveCapable() {
		return &ProtocolModeError{}
	}

	ts, err := a.tokenSet(ctx)
	if err != nil {
		return err
	}

	doc := clientauthv1beta1.ExecCredential{
		TypeMeta: metav1.TypeMeta{
			APIVersion: execCredentialAPIVersion,
			Kind:       "ExecCredential",
		},
		Status: &clientauthv1beta1.ExecCredentialStatus{
			Token:               ts.Bearer(),
			ExpirationTimestamp: &metav1.Time{Time: ts.ExpiresAt.UTC()},
		},
	}
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal exec credential: %w", err)
	}
	if _, err := fmt.Fprintln(out, string(content)); err != nil {
		return fmt.Errorf("failed to write exec credential: %w", err)
	}
	return nil
}

func (a *Adapter) tokenSet(ctx context.Context) (*auth.TokenSet, error) {
	key := a.cfg.ClientID
	window := a.cfg.RefreshWindowDuration()

	entry, ok, err := a.store.Get(key)
	if err != nil {
		// Cache failures are non-fatal; fall through to a fresh login.
		a.log.Warnw("token cache read failed", "error", err)
	}
	if ok && !entry.NearExpiry(a.now(), window) {
		ts := entry.TokenSet()
		return &ts, nil
	}

	ts, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(key, cache.NewEntry(key, *ts, a.now())); err != nil {
		a.log.Warnw("token cache write failed", "error", err)
	}
	return ts, nil
}
