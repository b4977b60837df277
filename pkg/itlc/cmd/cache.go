package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the token cache",
	}
	cmd.AddCommand(
		newCacheListCommand(),
		newCacheClearCommand(),
	)
	return cmd
}

func newCacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached entries without token material",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			store, err := rt.Store()
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(rt.Writer(), "Cache is empty.")
				return nil
			}

			w := tabwriter.NewWriter(rt.Writer(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "KEY\tTYPE\tEXPIRES\tCACHED")
			for _, m := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.Key, m.TokenType,
					m.ExpiresAt.UTC().Format(time.RFC3339),
					m.CachedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			store, err := rt.Store()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Cache cleared.")
			return nil
		},
	}
}
