package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/itlusions/itlc/pkg/itlc/auth"
	"github.com/itlusions/itlc/pkg/itlc/execcredential"
)

func newKubectlTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kubectl-token",
		Short: "Serve an ExecCredential document to kubectl",
		Long: `Runs as a kubectl credential plugin: writes exactly one
client.authentication.k8s.io/v1beta1 ExecCredential document to stdout.
All diagnostics go to stderr. Requires kubectl to signal interactive
capability; without it the command fails before any network access.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			store, err := rt.Store()
			if err != nil {
				return err
			}
			login := func(ctx context.Context) (*auth.TokenSet, error) {
				return rt.Login(ctx, true)
			}
			adapter := execcredential.New(rt.cfg, store, login, rt.log)
			return adapter.Run(cmd.Context(), rt.Writer())
		},
	}
}
