package cli

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andro-kes/prload/internal/mockapi"
)

// NewMockCmd returns the command serving the mock pull-request service,
// logging to logger.
func NewMockCmd(logger *zap.Logger) *cobra.Command {
	return newMockCmd(&app{logger: logger})
}

func newMockCmd(a *app) *cobra.Command {
	var (
		addr          string
		latency       time.Duration
		conflictEvery int64
		failEvery     int64
	)

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Serve an in-memory pull-request service for local runs",
		Long: `Serve team/add and pullRequest/create from memory.

  prload mock --addr :8081 --latency 20ms --conflict-every 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := []mockapi.Option{mockapi.WithLatency(latency)}
			if a.logger != nil {
				opts = append(opts, mockapi.WithLogger(a.logger))
			}
			if conflictEvery > 0 || failEvery > 0 {
				opts = append(opts, mockapi.WithStatusScript(everyN(conflictEvery, failEvery)))
			}

			return mockapi.Serve(ctx, addr, mockapi.New(opts...), func(bound net.Addr) {
				fmt.Fprintf(cmd.OutOrStdout(), "mock service listening on http://%s\n", bound)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8081", "Listen address")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay added to every response")
	cmd.Flags().Int64Var(&conflictEvery, "conflict-every", 0, "Answer every n-th pull request creation with 409")
	cmd.Flags().Int64Var(&failEvery, "fail-every", 0, "Answer every n-th pull request creation with 500")

	return cmd
}

// everyN scripts 409 on every conflict-th call and 500 on every fail-th call.
// A zero interval is off; conflicts win when both match.
func everyN(conflict, fail int64) mockapi.StatusScript {
	return func(n int64) int {
		switch {
		case conflict > 0 && n%conflict == 0:
			return http.StatusConflict
		case fail > 0 && n%fail == 0:
			return http.StatusInternalServerError
		default:
			return 0
		}
	}
}
