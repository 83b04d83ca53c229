package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andro-kes/prload/internal/threshold"
)

// OutputFormat represents the available threshold export formats
type OutputFormat string

const (
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
	// FormatJUnit outputs in JUnit XML format (for CI/CD integration)
	FormatJUnit OutputFormat = "junit"
)

// ParseFormat parses a format name. An empty name means JSON.
func ParseFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJUnit, "xml":
		return FormatJUnit, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", name)
	}
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) OutputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".xml":
		return FormatJUnit
	default:
		return FormatJSON
	}
}

// ThresholdReport is the exported verdict of a run.
type ThresholdReport struct {
	Name       string             `json:"name" yaml:"name"`
	Passed     bool               `json:"passed" yaml:"passed"`
	Timestamp  string             `json:"timestamp" yaml:"timestamp"`
	DurationMs float64            `json:"durationMs" yaml:"durationMs"`
	Thresholds []threshold.Result `json:"thresholds" yaml:"thresholds"`
}

// NewThresholdReport builds a report from threshold results.
func NewThresholdReport(name string, results []threshold.Result, duration time.Duration, at time.Time) ThresholdReport {
	passed := true
	for _, r := range results {
		passed = passed && r.Passed
	}
	if results == nil {
		results = []threshold.Result{}
	}
	return ThresholdReport{
		Name:       name,
		Passed:     passed,
		Timestamp:  at.UTC().Format(time.RFC3339),
		DurationMs: float64(duration) / float64(time.Millisecond),
		Thresholds: results,
	}
}

// JUnitTestSuites represents the root element containing all test suites
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents a JUnit test suite
type JUnitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a JUnit test case
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a JUnit test failure
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Format renders the report. Each threshold is one JUnit test case whose
// class is the metric name.
func (r ThresholdReport) Format(format OutputFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(r, "", "  ")
	case FormatYAML:
		return yaml.Marshal(r)
	case FormatJUnit:
		return r.junit()
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

func (r ThresholdReport) junit() ([]byte, error) {
	suite := JUnitTestSuite{
		Name:      r.Name,
		Tests:     len(r.Thresholds),
		Time:      r.DurationMs / 1000,
		Timestamp: r.Timestamp,
		TestCases: make([]JUnitTestCase, 0, len(r.Thresholds)),
	}

	for _, t := range r.Thresholds {
		tc := JUnitTestCase{
			Name:      t.Expression,
			Classname: t.Metric,
			SystemOut: fmt.Sprintf("actual=%g limit=%g", t.Actual, t.Limit),
		}
		if !t.Passed {
			suite.Failures++
			msg := t.Message
			if msg == "" {
				msg = fmt.Sprintf("%s %s failed: actual %g", t.Metric, t.Expression, t.Actual)
			}
			tc.Failure = &JUnitFailure{
				Message: msg,
				Type:    "ThresholdFailure",
				Content: msg,
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	out, err := xml.MarshalIndent(JUnitTestSuites{TestSuites: []JUnitTestSuite{suite}}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// WriteThresholdReport writes the report to path in the format implied by
// its extension.
func WriteThresholdReport(path string, r ThresholdReport) error {
	data, err := r.Format(FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to format threshold report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write threshold report: %w", err)
	}
	return nil
}
