package summary

import (
	"time"

	"github.com/andro-kes/prload/internal/metrics"
)

// Paths read by ExtractStats.
const (
	PathTotalRequests   = "metrics." + metrics.HTTPReqs + ".values.count"
	PathChecksRate      = "metrics." + metrics.Checks + ".values.rate"
	PathCheckPasses     = "metrics." + metrics.Checks + ".values.passes"
	PathCheckFails      = "metrics." + metrics.Checks + ".values.fails"
	PathAvgLatency      = "metrics." + metrics.HTTPReqDuration + ".values.avg"
	PathMinLatency      = "metrics." + metrics.HTTPReqDuration + ".values.min"
	PathMedLatency      = "metrics." + metrics.HTTPReqDuration + ".values.med"
	PathP90Latency      = "metrics." + metrics.HTTPReqDuration + ".values.p90"
	PathP95Latency      = "metrics." + metrics.HTTPReqDuration + ".values.p95"
	PathMaxLatency      = "metrics." + metrics.HTTPReqDuration + ".values.max"
	PathFailedRate      = "metrics." + metrics.HTTPReqFailed + ".values.rate"
	PathTestRunDuration = "state.testRunDurationMs"

	PathPRsCreated    = "metrics." + metrics.TotalPRsCreated + ".values.count"
	PathErrors        = "metrics." + metrics.Errors + ".values.count"
	PathPRSuccessRate = "metrics." + metrics.PRCreationSuccessRate + ".values.rate"
)

// Stats are the figures a report is built from. Latencies are in
// milliseconds, rates in [0, 1]. Every field is 0 when absent from the summary.
type Stats struct {
	TotalRequests float64
	ChecksRate    float64
	CheckPasses   float64
	CheckFails    float64
	AvgLatency    float64
	MinLatency    float64
	MedLatency    float64
	P90Latency    float64
	P95Latency    float64
	MaxLatency    float64
	FailedRate    float64

	// TestRunDurationMs is the wall-clock length of the run.
	TestRunDurationMs float64

	PRsCreated    float64
	Errors        float64
	PRSuccessRate float64
}

// ExtractStats reads every report figure from doc, defaulting each to 0.
func ExtractStats(doc Document) Stats {
	return Stats{
		TotalRequests:     Extract(doc, PathTotalRequests, 0),
		ChecksRate:        Extract(doc, PathChecksRate, 0),
		CheckPasses:       Extract(doc, PathCheckPasses, 0),
		CheckFails:        Extract(doc, PathCheckFails, 0),
		AvgLatency:        Extract(doc, PathAvgLatency, 0),
		MinLatency:        Extract(doc, PathMinLatency, 0),
		MedLatency:        Extract(doc, PathMedLatency, 0),
		P90Latency:        Extract(doc, PathP90Latency, 0),
		P95Latency:        Extract(doc, PathP95Latency, 0),
		MaxLatency:        Extract(doc, PathMaxLatency, 0),
		FailedRate:        Extract(doc, PathFailedRate, 0),
		TestRunDurationMs: Extract(doc, PathTestRunDuration, 0),
		PRsCreated:        Extract(doc, PathPRsCreated, 0),
		Errors:            Extract(doc, PathErrors, 0),
		PRSuccessRate:     Extract(doc, PathPRSuccessRate, 0),
	}
}

// TestRunDuration returns TestRunDurationMs as a time.Duration.
func (s Stats) TestRunDuration() time.Duration {
	return time.Duration(s.TestRunDurationMs * float64(time.Millisecond))
}
