// Package summary builds the end-of-run summary document and reads statistics
// back out of it.
//
// The document is deliberately loosely typed JSON, shaped as
//
//	{
//	  "state":   {"testRunDurationMs": 180000},
//	  "metrics": {"http_req_duration": {"type": "trend", "values": {"p95": 123.4, ...}}, ...},
//	  "checks":  [{"name": "PR created successfully", "passes": 90, "fails": 10}]
//	}
//
// A metric that was never emitted is simply absent, so every reader goes
// through Extract, which substitutes a default for anything missing.
package summary

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/andro-kes/prload/internal/metrics"
)

// Document is the end-of-run summary in its JSON form.
type Document []byte

type metricJSON struct {
	Type   metrics.Type       `json:"type"`
	Values map[string]float64 `json:"values"`
}

type stateJSON struct {
	TestRunDurationMs float64 `json:"testRunDurationMs"`
}

type documentJSON struct {
	State   stateJSON             `json:"state"`
	Metrics map[string]metricJSON `json:"metrics"`
	Checks  []metrics.CheckResult `json:"checks"`
}

// Build snapshots reg into a summary document. runDuration is reported as
// state.testRunDurationMs.
func Build(reg *metrics.Registry, runDuration time.Duration) (Document, error) {
	doc := documentJSON{
		State: stateJSON{
			TestRunDurationMs: float64(runDuration) / float64(time.Millisecond),
		},
		Metrics: make(map[string]metricJSON),
		Checks:  reg.Checks(),
	}

	for _, m := range reg.Metrics() {
		doc.Metrics[m.Name()] = metricJSON{
			Type:   m.Type(),
			Values: m.Values(runDuration),
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return Document(data), nil
}

// Load reads a summary document from path. The content is not validated;
// a malformed file simply yields defaults on extraction.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary file: %w", err)
	}
	return Document(data), nil
}

// Save writes the document to path.
func (d Document) Save(path string) error {
	if err := os.WriteFile(path, d, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}
