// Command mockapi serves the in-memory pull-request service on its own,
// for running prload against without the real backend.
package main

import (
	"fmt"
	"os"

	"github.com/andro-kes/prload/internal/cli"
	"github.com/andro-kes/prload/internal/logging"
)

func main() {
	logger, err := logging.New("info", logging.FormatText)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cmd := cli.NewMockCmd(logger)
	cmd.Use = "mockapi"
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
