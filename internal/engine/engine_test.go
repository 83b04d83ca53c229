package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/andro-kes/prload/internal/config"
	"github.com/andro-kes/prload/internal/fixture"
	prhttp "github.com/andro-kes/prload/internal/http"
	"github.com/andro-kes/prload/internal/metrics"
	"github.com/andro-kes/prload/internal/mockapi"
	"github.com/andro-kes/prload/internal/report"
	"github.com/andro-kes/prload/internal/scenario"
	"github.com/andro-kes/prload/internal/summary"
)

func testConfig(baseURL string) *config.TestConfig {
	return &config.TestConfig{
		Name: "engine test",
		Settings: config.Settings{
			BaseURL:      baseURL,
			Timeout:      config.Duration(time.Second),
			SettleDelay:  config.Duration(time.Millisecond),
			GracefulStop: config.Duration(time.Second),
		},
		Team: config.TeamConfig{
			Name:    "perf_team",
			Members: config.DefaultMembers(3),
		},
		Stages: []config.StageConfig{
			{Duration: config.Duration(300 * time.Millisecond), Target: 3},
		},
		Pacing: config.PacingConfig{
			Min: config.Duration(5 * time.Millisecond),
			Max: config.Duration(10 * time.Millisecond),
		},
		Thresholds: map[string][]string{
			"errors":                   {"count<1"},
			"pr_creation_success_rate": {"rate>0.95"},
		},
	}
}

func TestEngine_Run(t *testing.T) {
	mock := mockapi.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	var progressCalls atomic.Int64
	eng, err := New(testConfig(srv.URL),
		WithLogger(zaptest.NewLogger(t)),
		WithRand(scenario.NewRand(1)),
		WithProgressInterval(50*time.Millisecond),
		WithProgress(func(Progress) { progressCalls.Add(1) }),
	)
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixture.StatusCreated, result.Fixture)
	assert.Positive(t, result.Iterations)
	assert.True(t, result.Passed)
	assert.Len(t, result.Thresholds, 2)
	assert.Positive(t, progressCalls.Load())

	stats := result.Stats
	assert.Equal(t, float64(mock.PRCalls()), stats.TotalRequests)
	assert.Equal(t, stats.TotalRequests, stats.PRsCreated)
	assert.Equal(t, 0.0, stats.Errors)
	assert.Equal(t, 1.0, stats.PRSuccessRate)
	assert.InDelta(t, float64(result.Duration/time.Millisecond), stats.TestRunDurationMs, 1)

	assert.Len(t, result.Report, 2)
	assert.True(t, result.Report.WantsTextSummary())
	assert.Equal(t, []string{report.DefaultFileName}, result.Report.Artifacts())

	// The engine runs once.
	_, err = eng.Run(context.Background())
	assert.Error(t, err)
}

func TestEngine_FixtureAlreadyExistsOnSecondRun(t *testing.T) {
	mock := mockapi.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	for _, want := range []fixture.Status{fixture.StatusCreated, fixture.StatusAlreadyExists} {
		cfg := testConfig(srv.URL)
		cfg.Stages = []config.StageConfig{{Duration: config.Duration(100 * time.Millisecond), Target: 1}}

		eng, err := New(cfg)
		require.NoError(t, err)

		result, err := eng.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, result.Fixture)
	}
	assert.Equal(t, int64(2), mock.TeamCalls())
}

func TestEngine_FailedThreshold(t *testing.T) {
	mock := mockapi.New(mockapi.WithStatusScript(func(n int64) int {
		if n%2 == 0 {
			return http.StatusInternalServerError
		}
		return 0
	}))
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	eng, err := New(testConfig(srv.URL), WithRand(scenario.NewRand(2)))
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Passed)
	for _, r := range result.Thresholds {
		assert.False(t, r.Passed, "%s %s", r.Metric, r.Expression)
	}
	assert.Positive(t, result.Stats.Errors)
	assert.Equal(t, result.Stats.TotalRequests, result.Stats.PRsCreated+result.Stats.Errors)
}

func TestEngine_CancelStillSummarizes(t *testing.T) {
	srv := httptest.NewServer(mockapi.New().Handler())
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Stages = []config.StageConfig{{Duration: config.Duration(time.Minute), Target: 2}}

	eng, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := eng.Run(ctx)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.NotEmpty(t, result.Summary)
	assert.Len(t, result.Report, 2)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := testConfig("ftp://example.com")
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = testConfig("http://localhost")
	cfg.Thresholds = map[string][]string{"errors": {"bogus"}}
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNew_AppliesDefaults(t *testing.T) {
	eng, err := New(&config.TestConfig{})
	require.NoError(t, err)

	cfg := eng.Config()
	assert.Equal(t, config.DefaultBaseURL, cfg.Settings.BaseURL)
	assert.Len(t, cfg.Stages, 4)
	assert.Len(t, cfg.Team.Members, config.DefaultRosterSize)
	assert.Len(t, cfg.Thresholds, 3)
	assert.NotNil(t, eng.Registry())
}

// TestPipeline_EndToEnd drives the whole pipeline by hand for exactly 100
// iterations against a service answering 201 ninety times and 409 ten times.
func TestPipeline_EndToEnd(t *testing.T) {
	mock := mockapi.New(mockapi.WithStatusScript(func(n int64) int {
		if n%10 == 0 {
			return http.StatusConflict
		}
		return 0
	}))
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	client := prhttp.NewClient(prhttp.WithBaseURL(srv.URL))
	team := fixture.Team{TeamName: "perf_team", Members: []scenario.Actor{
		{UserID: "perf_user_1", Username: "Performance User 1", IsActive: true},
		{UserID: "perf_user_2", Username: "Performance User 2", IsActive: true},
	}}

	provisioner := fixture.NewProvisioner(client, 0, nil)
	assert.Equal(t, fixture.StatusCreated, provisioner.Provision(context.Background(), team))
	assert.Equal(t, fixture.StatusAlreadyExists, provisioner.Provision(context.Background(), team))

	runner, err := scenario.NewExecutor(client, team.Roster(), scenario.WithRand(scenario.NewRand(3)))
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	driver := scenario.NewDriver(runner, metrics.NewSink(reg), scenario.WithRecorder(reg))
	for i := 0; i < 100; i++ {
		driver.Iterate(context.Background())
	}

	doc, err := summary.Build(reg, 10*time.Second)
	require.NoError(t, err)

	stats := summary.ExtractStats(doc)
	assert.InDelta(t, 0.9, stats.PRSuccessRate, 1e-9)
	assert.Equal(t, 90.0, stats.PRsCreated)
	assert.Equal(t, 10.0, stats.Errors)
	assert.Equal(t, 100.0, stats.TotalRequests)
	assert.InDelta(t, 0.1, stats.FailedRate, 1e-9)
	assert.Equal(t, 90.0, summary.Extract(doc, "checks.0.passes", 0))
	assert.Equal(t, 10.0, summary.Extract(doc, "checks.0.fails", 0))

	out := report.Synthesize(stats, report.Options{})
	assert.Len(t, out, 2)
	assert.Contains(t, out[report.DefaultFileName], "<html")
}
