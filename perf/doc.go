// Package perf is the programmatic entry point to prload: it runs the
// pull-request creation load test from Go code instead of the command line.
//
// # Quick Start
//
//	cfg, _ := perf.LoadConfig("load.yaml")
//	result, _ := perf.RunTest(context.Background(), cfg)
//
//	fmt.Printf("Requests: %.0f\n", result.Stats.TotalRequests)
//	fmt.Printf("P95: %.1fms\n", result.Stats.P95Latency)
//	fmt.Printf("Passed: %v\n", result.Passed)
//
// # Custom Test Configuration
//
// Configurations can also be built in code. Unset fields take the reference
// workload defaults:
//
//	cfg := &perf.Config{
//	    Name: "smoke",
//	    Settings: perf.Settings{BaseURL: "http://localhost:8081"},
//	    Stages: []perf.Stage{
//	        {Duration: perf.Duration(30 * time.Second), Target: 5},
//	    },
//	}
//
// # Reports
//
// The result carries the summary document and the synthesized report; use
// WriteReport to put the artifacts on disk.
package perf
