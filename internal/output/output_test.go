package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/andro-kes/prload/internal/executor"
	"github.com/andro-kes/prload/internal/metrics"
	"github.com/andro-kes/prload/internal/summary"
	"github.com/andro-kes/prload/internal/threshold"
)

func buildDoc(t *testing.T) summary.Document {
	t.Helper()

	reg := metrics.NewRegistry()
	sink := metrics.NewSink(reg)
	for i := 0; i < 10; i++ {
		created := i < 9
		reg.RecordHTTP(120*time.Millisecond, !created)
		sink.AddDuration(120 * time.Millisecond)
		sink.AddSuccess(created)
		if created {
			sink.AddCreated()
		} else {
			sink.AddError()
		}
		reg.Check("PR created successfully", created)
	}

	doc, err := summary.Build(reg, 10*time.Second)
	require.NoError(t, err)
	return doc
}

func TestWriteTextSummary(t *testing.T) {
	doc := buildDoc(t)
	results := []threshold.Result{
		{Metric: "http_req_duration", Expression: "p(95)<500", Actual: 120, Limit: 500, Passed: true},
		{Metric: "pr_creation_success_rate", Expression: "rate>0.95", Actual: 0.9, Limit: 0.95, Passed: false},
	}

	var buf bytes.Buffer
	WriteTextSummary(&buf, doc, results, false)
	out := buf.String()

	assert.Contains(t, out, "PR created successfully")
	assert.Contains(t, out, "90% ✓ 9 / ✗ 1")
	assert.Contains(t, out, "http_req_duration")
	assert.Contains(t, out, "p(95)=120")
	assert.Contains(t, out, "total_prs_created")
	assert.Contains(t, out, "90.00% ✓ 9 ✗ 1")
	assert.Contains(t, out, "✗ pr_creation_success_rate rate>0.95 (actual: 0.9)")
	assert.NotContains(t, out, "\x1b[", "colors must be off")

	// Metrics are printed in name order.
	assert.Less(t, strings.Index(out, "create_pr_duration"), strings.Index(out, "errors"))
	assert.Less(t, strings.Index(out, "errors"), strings.Index(out, "http_req_duration"))
}

func TestWriteTextSummary_MalformedDocuments(t *testing.T) {
	for _, doc := range []summary.Document{nil, []byte(""), []byte("{"), []byte("[]"), []byte(`{"metrics":null}`), []byte(`{"metrics":{"x":{"type":"trend"}}}`)} {
		var buf bytes.Buffer
		assert.NotPanics(t, func() { WriteTextSummary(&buf, doc, nil, false) })
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0s"},
		{0.5, "500.00µs"},
		{12.345, "12.35ms"},
		{1500, "1.50s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMs(tt.in))
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", formatDuration(0))
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "4m30s", formatDuration(270*time.Second))
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, "[----]", renderProgressBar(-1, 4))
	assert.Equal(t, "[==--]", renderProgressBar(0.5, 4))
	assert.Equal(t, "[====]", renderProgressBar(2, 4))
}

func TestConsole_NonTTYSkipsLiveUpdates(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleConfig{Writer: &buf, NoColor: true, TestName: "load"})

	c.Update(LiveStats{Stats: executor.Stats{ActiveVUs: 3}})
	assert.Empty(t, buf.String())
}

func TestConsole_LiveAndSummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleConfig{Writer: &buf, NoColor: true, TestName: "load", BaseURL: "http://svc", ForceLive: true})

	c.PrintHeader([]executor.Stage{{Duration: 30 * time.Second, Target: 5, Name: "warm"}}, 5)
	c.Update(LiveStats{
		Stats: executor.Stats{
			Elapsed:       15 * time.Second,
			TotalDuration: 30 * time.Second,
			ActiveVUs:     3,
			TargetVUs:     3,
			TotalStages:   1,
			Phase:         executor.PhaseRampUp,
		},
		Requests:   42,
		PRsCreated: 40,
		Errors:     2,
	})
	c.PrintSummary(buildDoc(t), []threshold.Result{{Metric: "errors", Expression: "count<5", Passed: true}}, []string{"prload_report.html"})

	out := buf.String()
	assert.Contains(t, out, "load")
	assert.Contains(t, out, "http://svc")
	assert.Contains(t, out, "warm")
	assert.Contains(t, out, " 50% 15s/30s")
	assert.Contains(t, out, "vus=3/3 reqs=42 created=40 errors=2")
	assert.Contains(t, out, "report: prload_report.html")
	assert.Contains(t, out, "all thresholds passed")
}

func TestConsole_Quiet(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleConfig{Writer: &buf, Quiet: true, ForceLive: true})

	c.PrintHeader(nil, 0)
	c.Update(LiveStats{})
	c.PrintSummary(nil, nil, nil)
	assert.Empty(t, buf.String())
}

func TestLiveStats_Progress(t *testing.T) {
	assert.Equal(t, 0.0, LiveStats{}.Progress())
	s := LiveStats{Stats: executor.Stats{Elapsed: time.Minute, TotalDuration: 30 * time.Second}}
	assert.Equal(t, 1.0, s.Progress())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "junit": FormatJUnit} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatFromPath("out.YAML"))
	assert.Equal(t, FormatJUnit, FormatFromPath("out.xml"))
	assert.Equal(t, FormatJSON, FormatFromPath("out"))
}

func thresholdReport() ThresholdReport {
	results := []threshold.Result{
		{Metric: "http_req_duration", Expression: "p(95)<500", Actual: 120, Limit: 500, Passed: true},
		{Metric: "http_req_failed", Expression: "rate<0.1", Actual: 0.2, Limit: 0.1, Passed: false},
	}
	return NewThresholdReport("PR creation load test", results, 90*time.Second, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestThresholdReport_JSON(t *testing.T) {
	r := thresholdReport()
	assert.False(t, r.Passed)

	data, err := r.Format(FormatJSON)
	require.NoError(t, err)

	var decoded ThresholdReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r, decoded)
}

func TestThresholdReport_YAML(t *testing.T) {
	data, err := thresholdReport().Format(FormatYAML)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["timestamp"])
	assert.Len(t, decoded["thresholds"], 2)
}

func TestThresholdReport_JUnit(t *testing.T) {
	data, err := thresholdReport().Format(FormatJUnit)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(data, &suites))
	require.Len(t, suites.TestSuites, 1)

	suite := suites.TestSuites[0]
	assert.Equal(t, 2, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	assert.Equal(t, 90.0, suite.Time)
	assert.Nil(t, suite.TestCases[0].Failure)
	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Equal(t, "http_req_failed", suite.TestCases[1].Classname)
}

func TestNewThresholdReport_NoThresholds(t *testing.T) {
	r := NewThresholdReport("x", nil, 0, time.Now())
	assert.True(t, r.Passed)
	assert.NotNil(t, r.Thresholds)
}

func TestWriteThresholdReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.xml")
	require.NoError(t, WriteThresholdReport(path, thresholdReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<testsuites>")
}

func TestSupportsColors_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, SupportsColors(os.Stdout))

	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")
	assert.True(t, SupportsColors(&bytes.Buffer{}))
}
