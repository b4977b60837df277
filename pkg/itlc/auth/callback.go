package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const successPage = `<html>
<head><title>Authentication Successful</title></head>
<body style="font-family: Arial; text-align: center; padding: 50px;">
	<h1 style="color: green;">Authentication Successful</h1>
	<p>You can close this window and return to your terminal.</p>
</body>
</html>
`

const failurePage = `<html>
<head><title>Authentication Failed</title></head>
<body style="font-family: Arial; text-align: center; padding: 50px;">
	<h1 style="color: red;">Authentication Failed</h1>
	<p>The login attempt was not completed. Return to your terminal and try again.</p>
</body>
</html>
`

// callbackOutcome is the terminal result of one listener: exactly one of
// code or err is set.
type callbackOutcome struct {
	code string
	err  error
}

// CallbackListener serves the authorization redirect for a single Session
// on a fixed local port. It accepts at most one terminating request and
// hands the outcome to the waiting caller through a one-shot cell, so the
// goroutine doing socket I/O and the goroutine enforcing the deadline
// never share mutable state.
type CallbackListener struct {
	session *Session
	path    string

	ln  net.Listener
	srv *http.Server

	result    chan callbackOutcome
	once      sync.Once
	closeOnce sync.Once
}

// StartCallbackListener binds addr and begins serving in the background.
// A port already held by a stale process fails the whole login attempt
// here, before any browser interaction.
func StartCallbackListener(session *Session, addr string) (*CallbackListener, error) {
	redirect, err := url.Parse(session.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %s: %w", session.RedirectURI, err)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener on %s: %w", addr, err)
	}
	l := &CallbackListener{
		session: session,
		path:    redirect.Path,
		ln:      ln,
		result:  make(chan callbackOutcome, 1),
	}
	l.srv = &http.Server{
		Handler:           http.HandlerFunc(l.handle),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		_ = l.srv.Serve(ln)
	}()
	return l, nil
}

// Addr is the bound listen address, useful when the configured port is 0.
func (l *CallbackListener) Addr() string {
	return l.ln.Addr().String()
}

func (l *CallbackListener) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != l.path {
		http.NotFound(w, r)
		return
	}
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		writePage(w, http.StatusBadRequest, failurePage)
		l.resolve(callbackOutcome{err: &AuthorizationError{
			Code:        errCode,
			Description: query.Get("error_description"),
		}})
		return
	}

	code := query.Get("code")
	if code == "" || query.Get("state") != l.session.State {
		// Reject the request without terminating the session: a stale or
		// forged redirect must not take down a login it does not belong to.
		writePage(w, http.StatusBadRequest, failurePage)
		return
	}

	writePage(w, http.StatusOK, successPage)
	l.resolve(callbackOutcome{code: code})
}

func (l *CallbackListener) resolve(out callbackOutcome) {
	l.once.Do(func() {
		l.result <- out
	})
}

// Wait blocks until the listener resolves, the deadline elapses, or ctx
// is canceled. The listening socket is closed on every exit path so the
// port is immediately bindable again.
func (l *CallbackListener) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	defer l.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", &TimeoutError{After: timeout}
	case out := <-l.result:
		return out.code, out.err
	}
}

// Close shuts the server and its listener down. Safe to call more than
// once and from any exit path.
func (l *CallbackListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.srv.Close()
	})
	return err
}

func writePage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, body)
}
