package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itlusions/itlc/pkg/itlc/auth"
	"github.com/itlusions/itlc/pkg/itlc/cache"
)

func newGetTokenCommand() *cobra.Command {
	var accessToken bool
	var clientSecret string

	cmd := &cobra.Command{
		Use:   "get-token",
		Short: "Print a valid bearer token, logging in if necessary",
		Long: `Prints a bearer token on stdout. Without credentials this serves the
cached interactive login, refreshing or re-authenticating as needed. With
--client-secret (or ITLC_CLIENT_SECRET) it runs the client-credentials
grant for a confidential client instead, cached per client ID.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			secret := clientSecret
			if secret == "" {
				secret = os.Getenv("ITLC_CLIENT_SECRET")
			}

			var ts *auth.TokenSet
			if secret != "" {
				ts, err = serviceAccountTokenSet(cmd, rt, secret)
			} else {
				ts, err = currentTokenSet(cmd, rt)
			}
			if err != nil {
				return err
			}
			token := ts.Bearer()
			if accessToken {
				token = ts.AccessToken
			}
			_, _ = fmt.Fprintln(rt.Writer(), token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&accessToken, "access-token", false, "Print the access token instead of the ID token")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Confidential client secret for the client-credentials grant")
	return cmd
}

// serviceAccountTokenSet runs the client-credentials grant, caching the
// result per client ID so repeated automation calls skip the realm.
func serviceAccountTokenSet(cmd *cobra.Command, rt *runtimeState, secret string) (*auth.TokenSet, error) {
	store, err := rt.Store()
	if err != nil {
		return nil, err
	}
	key := rt.cfg.ClientID
	now := time.Now()

	entry, ok, err := store.Get(key)
	if err != nil {
		rt.log.Warnw("token cache read failed", "error", err)
	}
	if ok && !entry.NearExpiry(now, rt.cfg.RefreshWindowDuration()) {
		ts := entry.TokenSet()
		return &ts, nil
	}

	sa := auth.NewServiceAccountClient(rt.cfg)
	ts, err := sa.Login(cmd.Context(), key, secret)
	if err != nil {
		return nil, err
	}
	if err := store.Save(key, cache.NewEntry(key, *ts, now)); err != nil {
		rt.log.Warnw("failed to cache token", "error", err)
	}
	return ts, nil
}

// currentTokenSet serves the cached login, refreshing it inside the
// refresh window and falling back to a fresh interactive login.
func currentTokenSet(cmd *cobra.Command, rt *runtimeState) (*auth.TokenSet, error) {
	ctxStore, err := rt.ContextStore()
	if err != nil {
		return nil, err
	}
	entry, ok, err := ctxStore.Current()
	if err != nil {
		rt.log.Warnw("token cache read failed", "error", err)
	}

	now := time.Now()
	window := rt.cfg.RefreshWindowDuration()
	if ok {
		ts := entry.TokenSet()
		if !ts.NearExpiry(now, window) {
			return &ts, nil
		}
		if ts.RefreshToken != "" {
			if refreshed, err := rt.Refresh(cmd.Context(), ts); err == nil {
				saveContext(rt, ctxStore, refreshed)
				return refreshed, nil
			} else {
				rt.log.Debugw("token refresh failed, falling back to login", "error", err)
			}
		}
	}

	ts, err := rt.Login(cmd.Context(), false)
	if err != nil {
		return nil, err
	}
	saveContext(rt, ctxStore, ts)
	return ts, nil
}

func saveContext(rt *runtimeState, ctxStore *cache.ContextStore, ts *auth.TokenSet) {
	if err := ctxStore.Save(rt.cfg.Realm, rt.cfg.Issuer(), *ts); err != nil {
		rt.log.Warnw("failed to cache token", "error", err)
	}
}

func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and introspect tokens",
	}
	cmd.AddCommand(
		newTokenInspectCommand(),
		newTokenIntrospectCommand(),
	)
	return cmd
}

func newTokenInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Decode a token's claims locally without verification",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			raw, err := resolveToken(rt, args)
			if err != nil {
				return err
			}
			claims, err := decodeClaims(raw)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(rt.Writer())
			encoder.SetIndent("", "  ")
			return encoder.Encode(claims)
		},
	}
}

func newTokenIntrospectCommand() *cobra.Command {
	var clientID, clientSecret string

	cmd := &cobra.Command{
		Use:   "introspect [token]",
		Short: "Ask the realm whether a token is active",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			raw, err := resolveToken(rt, args)
			if err != nil {
				return err
			}
			secret := clientSecret
			if secret == "" {
				secret = os.Getenv("ITLC_CLIENT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("introspection requires confidential client credentials: set --client-secret or ITLC_CLIENT_SECRET")
			}
			id := clientID
			if id == "" {
				id = rt.cfg.ClientID
			}

			sa := auth.NewServiceAccountClient(rt.cfg)
			result, err := sa.Introspect(cmd.Context(), raw, id, secret)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(rt.Writer())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	cmd.Flags().StringVar(&clientID, "introspect-client-id", "", "Confidential client permitted to introspect")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Secret of the introspecting client")
	return cmd
}

// resolveToken takes the token from the argument when given, and from
// the cached login otherwise.
func resolveToken(rt *runtimeState, args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	ctxStore, err := rt.ContextStore()
	if err != nil {
		return "", err
	}
	entry, ok, err := ctxStore.Current()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no token given and no cached login: run 'itlc login' first")
	}
	return entry.TokenSet().Bearer(), nil
}
