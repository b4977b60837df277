package cmd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate via the browser and cache the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			ts, err := rt.Login(cmd.Context(), false)
			if err != nil {
				return err
			}
			ctxStore, err := rt.ContextStore()
			if err != nil {
				return err
			}
			if err := ctxStore.Save(rt.cfg.Realm, rt.cfg.Issuer(), *ts); err != nil {
				// The login itself succeeded; only the cache write is lost.
				rt.log.Warnw("failed to cache token", "error", err)
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Logged in to realm %s. Token expires at %s\n",
				rt.cfg.Realm, ts.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the cached login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			ctxStore, err := rt.ContextStore()
			if err != nil {
				return err
			}
			if err := ctxStore.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Logged out.")
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			ctxStore, err := rt.ContextStore()
			if err != nil {
				return err
			}
			entry, ok, err := ctxStore.Current()
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(rt.Writer(), "Not logged in.")
				return nil
			}

			w := rt.Writer()
			ts := entry.TokenSet()
			if ts.NearExpiry(time.Now(), rt.cfg.RefreshWindowDuration()) && ts.RefreshToken != "" {
				if refreshed, err := rt.Refresh(cmd.Context(), ts); err == nil {
					saveContext(rt, ctxStore, refreshed)
					entry.ExpiresAt = refreshed.ExpiresAt
					_, _ = fmt.Fprintln(w, "Token was near expiry and has been refreshed.")
				} else {
					rt.log.Warnw("token refresh failed", "error", err)
					_, _ = fmt.Fprintln(w, "Warning:  token expires soon and could not be refreshed")
				}
			}

			_, _ = fmt.Fprintf(w, "Realm:    %s\n", entry.Realm)
			_, _ = fmt.Fprintf(w, "Issuer:   %s\n", entry.IssuerURL)
			_, _ = fmt.Fprintf(w, "Expires:  %s\n", entry.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity of the cached login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			ctxStore, err := rt.ContextStore()
			if err != nil {
				return err
			}
			entry, ok, err := ctxStore.Current()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("not logged in: run 'itlc login' first")
			}

			claims, err := decodeClaims(entry.TokenSet().Bearer())
			if err != nil {
				return err
			}
			w := rt.Writer()
			if v, ok := claims["preferred_username"].(string); ok {
				_, _ = fmt.Fprintf(w, "Username: %s\n", v)
			}
			if v, ok := claims["sub"].(string); ok {
				_, _ = fmt.Fprintf(w, "Subject:  %s\n", v)
			}
			if v, ok := claims["email"].(string); ok {
				_, _ = fmt.Fprintf(w, "Email:    %s\n", v)
			}
			if groups, ok := claims["groups"].([]interface{}); ok {
				for _, g := range groups {
					_, _ = fmt.Fprintf(w, "Group:    %v\n", g)
				}
			}
			return nil
		},
	}
}

// decodeClaims reads a JWT's payload without verifying the signature.
// Signature verification belongs to the API server; here the token only
// describes its own holder.
func decodeClaims(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}
