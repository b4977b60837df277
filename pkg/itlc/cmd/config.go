package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/itlusions/itlc/pkg/itlc/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and persist the configuration",
	}
	cmd.AddCommand(
		newConfigViewCommand(),
		newConfigSetCommand(),
	)
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			content, err := yaml.Marshal(rt.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, _ = fmt.Fprint(rt.Writer(), string(content))
			return nil
		},
	}
}

// newConfigSetCommand persists the effective configuration, so realm or
// client overrides given as flags become the new defaults:
//
//	itlc config set --realm other --client-id custom
func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Persist the effective configuration to the config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(rt.configPath, &rt.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Configuration written to %s\n", rt.configPath)
			return nil
		},
	}
}
