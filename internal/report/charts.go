// Package report turns end-of-run statistics into a self-contained HTML
// report with Chart.js datasets.
//
// Chart data is computed by ComputeCharts, a pure function over
// summary.Stats; rendering only lays that data out.
package report

import (
	"math"

	"github.com/andro-kes/prload/internal/summary"
)

// Chart labels.
var (
	PercentileLabels   = []string{"Min", "Median", "p90", "p95", "Max"}
	ChecksLabels       = []string{"Success", "Failed"}
	DistributionLabels = []string{"0%", "25%", "50%", "75%", "90%", "95%", "100%"}
)

// Dataset is one chart's labels and values.
type Dataset struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Headline holds the summary panel figures.
type Headline struct {
	TotalRequests   float64
	SuccessRatePct  float64
	AvgLatencyMs    float64
	FailureRatePct  float64
	TestDurationSec float64

	PRsCreated       float64
	Errors           float64
	PRSuccessRatePct float64
}

// Charts is everything the report displays.
type Charts struct {
	Headline     Headline
	Percentiles  Dataset
	Checks       Dataset
	Distribution Dataset
}

// ComputeCharts derives the report figures from stats. Non-finite inputs are
// treated as 0, so any Stats value yields finite datasets.
func ComputeCharts(stats summary.Stats) Charts {
	min := finite(stats.MinLatency)
	med := finite(stats.MedLatency)
	p90 := finite(stats.P90Latency)
	p95 := finite(stats.P95Latency)
	max := finite(stats.MaxLatency)

	return Charts{
		Headline: Headline{
			TotalRequests:    finite(stats.TotalRequests),
			SuccessRatePct:   finite(stats.ChecksRate) * 100,
			AvgLatencyMs:     finite(stats.AvgLatency),
			FailureRatePct:   finite(stats.FailedRate) * 100,
			TestDurationSec:  finite(stats.TestRunDurationMs) / 1000,
			PRsCreated:       finite(stats.PRsCreated),
			Errors:           finite(stats.Errors),
			PRSuccessRatePct: finite(stats.PRSuccessRate) * 100,
		},
		Percentiles: Dataset{
			Labels: PercentileLabels,
			Data:   []float64{min, med, p90, p95, max},
		},
		Checks: Dataset{
			Labels: ChecksLabels,
			Data:   []float64{finite(stats.CheckPasses), finite(stats.CheckFails)},
		},
		Distribution: Dataset{
			Labels: DistributionLabels,
			Data:   Distribution(min, med, p90, p95, max),
		},
	}
}

// Distribution returns a 7-point latency curve at 0, 25, 50, 75, 90, 95 and
// 100 percent. The 25% and 75% points are midpoints between neighbouring
// percentiles, so this is an approximation, not an empirical distribution.
func Distribution(min, med, p90, p95, max float64) []float64 {
	return []float64{
		min,
		min + (med-min)*0.5,
		med,
		med + (p90-med)*0.5,
		p90,
		p95,
		max,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
