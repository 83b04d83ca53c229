package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/andro-kes/prload/internal/config"
	"github.com/andro-kes/prload/internal/metrics"
	"github.com/andro-kes/prload/internal/report"
	"github.com/andro-kes/prload/internal/scenario"
	"github.com/andro-kes/prload/internal/summary"
	"github.com/andro-kes/prload/internal/threshold"
)

func main() {
	outputPath := report.DefaultFileName
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	doc, err := createSampleSummary(rand.New(rand.NewSource(42)), 4*time.Minute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	results, _ := threshold.EvaluateAll(config.DefaultThresholds(), doc)
	out := report.Synthesize(summary.ExtractStats(doc), report.Options{
		FileName: filepath.Base(outputPath),
		Meta: report.Meta{
			Title:      "PR Creation Load Test - Sample",
			Thresholds: results,
		},
	})

	paths, err := report.WriteDocument(out, filepath.Dir(outputPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, p := range paths {
		fmt.Printf("Sample report generated: %s\n", p)
	}
}

// createSampleSummary records a plausible run: ~2400 iterations, 3% conflicts,
// 1% server errors, latencies around 45ms with a long tail.
func createSampleSummary(rng *rand.Rand, duration time.Duration) (summary.Document, error) {
	reg := metrics.NewRegistry()
	sink := metrics.NewSink(reg)

	for i := 0; i < 2400; i++ {
		latency := time.Duration(20+rng.ExpFloat64()*25) * time.Millisecond
		if rng.Float64() < 0.02 {
			latency += time.Duration(rng.Intn(800)) * time.Millisecond
		}

		status := 201
		switch r := rng.Float64(); {
		case r < 0.03:
			status = 409
		case r < 0.04:
			status = 500
		}
		outcome := scenario.Classify(status)
		ok := outcome == scenario.OutcomeCreated

		reg.RecordHTTP(latency, status < 200 || status >= 400)
		reg.Check(scenario.CheckCreated, ok)
		reg.Check(scenario.CheckResponseTime, latency < time.Second)

		sink.AddDuration(latency + time.Millisecond)
		sink.AddSuccess(ok)
		if ok {
			sink.AddCreated()
		} else {
			sink.AddError()
		}
		reg.RecordIteration(latency + time.Duration(1000+rng.Intn(2000))*time.Millisecond)
	}
	reg.SetVUs(15)
	reg.SetVUs(0)

	return summary.Build(reg, duration)
}
