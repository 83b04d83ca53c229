package perf

import (
	"context"

	"go.uber.org/zap"

	"github.com/andro-kes/prload/internal/config"
	"github.com/andro-kes/prload/internal/engine"
	"github.com/andro-kes/prload/internal/report"
)

// Configuration types.
type (
	Config     = config.TestConfig
	Settings   = config.Settings
	TeamConfig = config.TeamConfig
	Member     = config.MemberConfig
	Stage      = config.StageConfig
	Pacing     = config.PacingConfig
	Duration   = config.Duration
)

// Result is the outcome of a run.
type Result = engine.Result

// Progress is a live snapshot passed to WithProgress callbacks.
type Progress = engine.Progress

// Option configures RunTest.
type Option = engine.Option

// WithLogger sets the logger of the run.
func WithLogger(logger *zap.Logger) Option { return engine.WithLogger(logger) }

// WithProgress registers a progress callback.
func WithProgress(fn func(Progress)) Option { return engine.WithProgress(fn) }

// LoadConfig loads a YAML or JSON workload file.
func LoadConfig(path string) (*Config, error) {
	return config.LoadConfig(path)
}

// DefaultConfig returns the reference workload.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// RunTest runs cfg to completion.
func RunTest(ctx context.Context, cfg *Config, opts ...Option) (*Result, error) {
	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}

// WriteReport writes the report artifacts of result into dir and returns
// their paths.
func WriteReport(result *Result, dir string) ([]string, error) {
	return report.WriteDocument(result.Report, dir)
}
