package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andro-kes/prload/internal/config"
	"github.com/andro-kes/prload/internal/engine"
	"github.com/andro-kes/prload/internal/executor"
	"github.com/andro-kes/prload/internal/metrics"
	"github.com/andro-kes/prload/internal/output"
	"github.com/andro-kes/prload/internal/report"
)

type runOptions struct {
	configFile      string
	baseURL         string
	stages          string
	outDir          string
	reportFile      string
	summaryExport   string
	thresholdExport string
	metricsAddr     string
	maxRPS          float64
	idStrategy      string
	quiet           bool
	noColor         bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pull-request creation load test",
		Long: `Run the load test described by a configuration file, or the reference
workload when no file is given. Flags override file values.

  prload run
  prload run --config load.yaml --out reports/
  prload run --base-url http://localhost:8081 --stages "30s:5,1m:10,30s:0"

Exits with status 1 when a threshold fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	flags.StringVar(&opts.baseURL, "base-url", "", "Base URL of the service under test")
	flags.StringVar(&opts.stages, "stages", "", "Stages in format 'duration:target,duration:target,...'")
	flags.StringVarP(&opts.outDir, "out", "o", "", "Directory the report is written to")
	flags.StringVar(&opts.reportFile, "report-file", "", "Report file name (default "+report.DefaultFileName+")")
	flags.StringVar(&opts.summaryExport, "summary-export", "", "Write the summary JSON to this file")
	flags.StringVar(&opts.thresholdExport, "threshold-export", "", "Write threshold results to this file (.json, .yaml or .xml for JUnit)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve live Prometheus metrics on this address (e.g. :9100)")
	flags.Float64Var(&opts.maxRPS, "max-rps", 0, "Cap iteration starts per second across all VUs (0 = unlimited)")
	flags.StringVar(&opts.idStrategy, "id-strategy", "", "Pull request id strategy: timestamp or uuid")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Disable live progress and the text summary")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// loadRunConfig loads the configuration and applies flag overrides.
func loadRunConfig(opts *runOptions) (*config.TestConfig, error) {
	var cfg *config.TestConfig
	if opts.configFile != "" {
		loaded, err := config.LoadConfig(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	if opts.baseURL != "" {
		cfg.Settings.BaseURL = opts.baseURL
	}
	if opts.stages != "" {
		stages, err := config.ParseStages(opts.stages)
		if err != nil {
			return nil, fmt.Errorf("invalid --stages: %w", err)
		}
		cfg.Stages = stages
	}
	if opts.maxRPS > 0 {
		cfg.Settings.MaxRPS = opts.maxRPS
	}
	if opts.idStrategy != "" {
		cfg.Settings.IDStrategy = opts.idStrategy
	}
	if opts.outDir != "" {
		cfg.Report.Dir = opts.outDir
	}
	if opts.reportFile != "" {
		cfg.Report.FileName = opts.reportFile
	}
	if opts.summaryExport != "" {
		cfg.Report.SummaryExport = opts.summaryExport
	}

	config.ApplyDefaults(cfg)
	return cfg, nil
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, opts *runOptions) error {
	cfg, err := loadRunConfig(opts)
	if err != nil {
		return err
	}

	console := output.NewConsole(output.ConsoleConfig{
		Writer:   cmd.OutOrStdout(),
		Quiet:    opts.quiet,
		NoColor:  opts.noColor,
		TestName: cfg.Name,
		BaseURL:  cfg.Settings.BaseURL,
	})

	eng, err := engine.New(cfg,
		engine.WithLogger(a.logger),
		engine.WithProgress(func(p engine.Progress) {
			console.Update(output.LiveStats{
				Stats:      p.Stats,
				Requests:   p.Requests,
				PRsCreated: p.PRsCreated,
				Errors:     p.Errors,
			})
		}),
	)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		shutdown, err := serveMetrics(opts.metricsAddr, eng.Registry(), a.logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	console.PrintHeader(executorStages(cfg), cfg.MaxTarget())

	result, err := eng.Run(ctx)
	console.Finish()
	if err != nil {
		return err
	}

	artifacts, err := report.WriteDocument(result.Report, cfg.Report.Dir)
	if err != nil {
		return err
	}
	for _, path := range artifacts {
		a.logger.Info("report written", zap.String("path", path))
	}

	if cfg.Report.SummaryExport != "" {
		if err := result.Summary.Save(cfg.Report.SummaryExport); err != nil {
			return err
		}
	}
	if opts.thresholdExport != "" {
		tr := output.NewThresholdReport(cfg.Name, result.Thresholds, result.Duration, result.EndTime)
		if err := output.WriteThresholdReport(opts.thresholdExport, tr); err != nil {
			return err
		}
	}

	if result.Report.WantsTextSummary() {
		console.PrintSummary(result.Summary, result.Thresholds, artifacts)
	}

	if !result.Passed {
		return ErrThresholdsFailed
	}
	return nil
}

func executorStages(cfg *config.TestConfig) []executor.Stage {
	stages := make([]executor.Stage, len(cfg.Stages))
	for i, s := range cfg.Stages {
		stages[i] = executor.Stage{Duration: time.Duration(s.Duration), Target: s.Target, Name: s.Name}
	}
	return stages
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *metrics.Registry, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
