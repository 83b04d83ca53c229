package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andro-kes/prload/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: valid\n", configFile)
			fmt.Fprintf(w, "  name:       %s\n", cfg.Name)
			fmt.Fprintf(w, "  base url:   %s\n", cfg.Settings.BaseURL)
			fmt.Fprintf(w, "  team:       %s (%d members)\n", cfg.Team.Name, len(cfg.Team.Members))
			fmt.Fprintf(w, "  stages:     %d, %s total, up to %d VUs\n", len(cfg.Stages), cfg.TotalDuration(), cfg.MaxTarget())
			fmt.Fprintf(w, "  thresholds: %d metrics\n", len(cfg.Thresholds))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	cmd.MarkFlagRequired("config")

	return cmd
}
