package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andro-kes/prload/internal/config"
	"github.com/andro-kes/prload/internal/output"
	"github.com/andro-kes/prload/internal/report"
	"github.com/andro-kes/prload/internal/summary"
	"github.com/andro-kes/prload/internal/threshold"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		summaryFile string
		configFile  string
		outDir      string
		reportFile  string
		title       string
		quiet       bool
		noColor     bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the HTML report from an exported summary",
		Long: `Render the report from a summary written by 'prload run --summary-export'.
With --config the thresholds of that file are evaluated again.

  prload report --summary summary.json --out reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := summary.Load(summaryFile)
			if err != nil {
				return err
			}

			var (
				results []threshold.Result
				passed  = true
			)
			if configFile != "" {
				cfg, err := config.LoadConfig(configFile)
				if err != nil {
					return fmt.Errorf("error loading config: %w", err)
				}
				results, passed = threshold.EvaluateAll(cfg.Thresholds, doc)
				if title == "" {
					title = cfg.Name
				}
			}

			out := report.Synthesize(summary.ExtractStats(doc), report.Options{
				FileName: reportFile,
				Meta:     report.Meta{Title: title, Thresholds: results},
			})

			artifacts, err := report.WriteDocument(out, outDir)
			if err != nil {
				return err
			}
			for _, path := range artifacts {
				a.logger.Info("report written", zap.String("path", path))
			}

			if out.WantsTextSummary() {
				console := output.NewConsole(output.ConsoleConfig{
					Writer:  cmd.OutOrStdout(),
					Quiet:   quiet,
					NoColor: noColor,
				})
				console.PrintSummary(doc, results, artifacts)
			}

			if !passed {
				return ErrThresholdsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&summaryFile, "summary", "s", "", "Summary JSON file")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file whose thresholds are evaluated")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory the report is written to")
	cmd.Flags().StringVar(&reportFile, "report-file", "", "Report file name (default "+report.DefaultFileName+")")
	cmd.Flags().StringVar(&title, "title", "", "Report title")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the text summary")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.MarkFlagRequired("summary")

	return cmd
}
