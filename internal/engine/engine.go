// Package engine runs a complete load test: it provisions the team fixture,
// drives the pull-request scenario on a ramping VU schedule, then builds the
// summary, evaluates thresholds and synthesizes the report.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andro-kes/prload/internal/config"
	"github.com/andro-kes/prload/internal/executor"
	"github.com/andro-kes/prload/internal/fixture"
	prhttp "github.com/andro-kes/prload/internal/http"
	"github.com/andro-kes/prload/internal/logging"
	"github.com/andro-kes/prload/internal/metrics"
	"github.com/andro-kes/prload/internal/report"
	"github.com/andro-kes/prload/internal/scenario"
	"github.com/andro-kes/prload/internal/summary"
	"github.com/andro-kes/prload/internal/threshold"
)

// DefaultProgressInterval is how often the progress callback fires.
const DefaultProgressInterval = 500 * time.Millisecond

// Progress is a live snapshot of a running test.
type Progress struct {
	executor.Stats

	Requests   int64
	PRsCreated int64
	Errors     int64
}

// Result contains the complete outcome of a run.
type Result struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time

	// Duration is the length of the load phase, reported as testRunDurationMs.
	Duration time.Duration

	Fixture    fixture.Status
	Iterations int64

	Summary    summary.Document
	Stats      summary.Stats
	Thresholds []threshold.Result
	Passed     bool

	// Report is the synthesized output document.
	Report report.Document
}

// Engine is the main orchestrator of a run.
//
// Example usage:
//
//	cfg, _ := config.LoadConfig("test.yaml")
//	eng, _ := engine.New(cfg)
//	result, _ := eng.Run(context.Background())
//	fmt.Printf("Test passed: %v\n", result.Passed)
type Engine struct {
	config   *config.TestConfig
	registry *metrics.Registry
	client   *prhttp.Client
	logger   *zap.Logger

	progress         func(Progress)
	progressInterval time.Duration
	rng              *scenario.Rand
	now              func() time.Time

	mu      sync.Mutex
	running bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProgress registers a callback invoked periodically while load runs
// and once more when it ends.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithProgressInterval overrides DefaultProgressInterval.
func WithProgressInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.progressInterval = d
		}
	}
}

// WithRand seeds author selection, identifiers and pacing.
func WithRand(rng *scenario.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithHTTPClient replaces the client built from the settings.
func WithHTTPClient(client *prhttp.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// New creates an engine for cfg. Unset fields get their defaults and the
// result is validated.
func New(cfg *config.TestConfig, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		config:           cfg,
		registry:         metrics.NewRegistry(),
		logger:           zap.NewNop(),
		progressInterval: DefaultProgressInterval,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		e.client = prhttp.NewClient(
			prhttp.WithBaseURL(cfg.Settings.BaseURL),
			prhttp.WithTimeout(cfg.Settings.Timeout.GetDuration(config.DefaultTimeout)),
			prhttp.WithMaxIdleConnsPerHost(cfg.Settings.MaxIdleConnsPerHost),
		)
	}
	if e.rng == nil {
		e.rng = scenario.NewTimeSeededRand()
	}

	return e, nil
}

// Registry returns the metrics registry of the run, for live export.
func (e *Engine) Registry() *metrics.Registry {
	return e.registry
}

// Config returns the effective configuration.
func (e *Engine) Config() *config.TestConfig {
	return e.config
}

// Run executes the test. Cancelling ctx ends the load phase early; the
// summary, thresholds and report are still produced from whatever was
// recorded. An engine runs once.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine is already running")
	}
	e.running = true
	e.mu.Unlock()

	team := e.team()

	sched, err := executor.NewRampingVUs(e.executorConfig(),
		executor.WithVUObserver(e.registry.SetVUs),
		executor.WithLogger(logging.Component(e.logger, "executor")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	runner, err := scenario.NewExecutor(e.client, team.Roster(),
		scenario.WithRand(e.rng),
		scenario.WithIDGenerator(e.idGenerator()),
		scenario.WithTimeout(e.config.Settings.Timeout.GetDuration(config.DefaultTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	driver := scenario.NewDriver(runner, metrics.NewSink(e.registry),
		scenario.WithRecorder(e.registry),
		scenario.WithPacing(scenario.Pacing{
			Min: time.Duration(e.config.Pacing.Min),
			Max: time.Duration(e.config.Pacing.Max),
		}),
		scenario.WithPacingRand(e.rng),
		scenario.WithLogger(logging.Component(e.logger, "scenario")),
	)

	result := &Result{Name: e.config.Name}

	provisioner := fixture.NewProvisioner(e.client,
		e.config.Settings.SettleDelay.GetDuration(config.DefaultSettleDelay),
		logging.Component(e.logger, "fixture"))
	result.Fixture = provisioner.Provision(ctx, team)

	result.StartTime = e.now()
	stopProgress := e.startProgress(sched)
	runErr := sched.Run(ctx, driver.Run)
	stopProgress()
	result.EndTime = e.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	if runErr != nil {
		return nil, fmt.Errorf("load phase failed: %w", runErr)
	}

	result.Iterations = sched.Stats().Iterations

	if err := e.finish(result); err != nil {
		return nil, err
	}

	e.logger.Info("run finished",
		zap.Int64("iterations", result.Iterations),
		zap.Duration("duration", result.Duration),
		zap.Bool("passed", result.Passed),
	)
	return result, nil
}

// finish builds the summary and everything derived from it.
func (e *Engine) finish(result *Result) error {
	doc, err := summary.Build(e.registry, result.Duration)
	if err != nil {
		return err
	}
	result.Summary = doc
	result.Stats = summary.ExtractStats(doc)
	result.Thresholds, result.Passed = threshold.EvaluateAll(e.config.Thresholds, doc)

	for _, t := range result.Thresholds {
		if !t.Passed {
			e.logger.Warn("threshold failed",
				zap.String("metric", t.Metric),
				zap.String("expression", t.Expression),
				zap.Float64("actual", t.Actual),
			)
		}
	}

	result.Report = report.Synthesize(result.Stats, report.Options{
		FileName: e.config.Report.FileName,
		Meta: report.Meta{
			Title:      e.config.Name,
			Generated:  result.EndTime,
			Thresholds: result.Thresholds,
		},
	})
	return nil
}

func (e *Engine) startProgress(sched *executor.RampingVUs) (stop func()) {
	if e.progress == nil {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(e.progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				e.progress(e.snapshot(sched))
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		e.progress(e.snapshot(sched))
	}
}

func (e *Engine) snapshot(sched *executor.RampingVUs) Progress {
	return Progress{
		Stats:      sched.Stats(),
		Requests:   e.registry.Counter(metrics.HTTPReqs).Count(),
		PRsCreated: e.registry.Counter(metrics.TotalPRsCreated).Count(),
		Errors:     e.registry.Counter(metrics.Errors).Count(),
	}
}

func (e *Engine) team() fixture.Team {
	members := make([]scenario.Actor, len(e.config.Team.Members))
	for i, m := range e.config.Team.Members {
		members[i] = scenario.Actor{
			UserID:   m.UserID,
			Username: m.Username,
			IsActive: m.Active,
		}
	}
	return fixture.Team{TeamName: e.config.Team.Name, Members: members}
}

func (e *Engine) executorConfig() executor.Config {
	stages := make([]executor.Stage, len(e.config.Stages))
	for i, s := range e.config.Stages {
		stages[i] = executor.Stage{
			Duration: time.Duration(s.Duration),
			Target:   s.Target,
			Name:     s.Name,
		}
	}
	return executor.Config{
		Stages:       stages,
		GracefulStop: e.config.Settings.GracefulStop.GetDuration(executor.DefaultGracefulStop),
		MaxRPS:       e.config.Settings.MaxRPS,
	}
}

func (e *Engine) idGenerator() scenario.IDGenerator {
	if e.config.Settings.IDStrategy == config.IDStrategyUUID {
		return scenario.UUIDIDs()
	}
	return scenario.TimestampIDs(e.rng)
}
