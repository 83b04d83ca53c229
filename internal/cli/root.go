// Package cli implements the prload command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andro-kes/prload/internal/logging"
)

var version = "0.1.0"

// ErrThresholdsFailed is returned by run and report when at least one
// threshold failed. It maps to exit code 1 without an error message.
var ErrThresholdsFailed = errors.New("some thresholds have failed")

// app holds state shared by every command.
type app struct {
	logger *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:     "prload",
		Short:   "Load test the pull-request creation endpoint",
		Version: version,
		Long: `prload provisions a team, then drives pull-request creation calls against
the service from a ramping pool of virtual users. At the end it evaluates
pass/fail thresholds and writes an HTML report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")

			logger, err := logging.New(level, format)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", logging.FormatJSON, "Log format (json, text)")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newReportCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newMockCmd(a))

	return root
}

// Execute runs the command line and returns the error that ended it.
// Threshold failures are not printed.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil && !errors.Is(err, ErrThresholdsFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
