// Package config provides the workload configuration for a pull-request load test.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// TestConfig is the root configuration of a load test run.
//
// Example YAML:
//
//	name: "PR creation load test"
//	settings:
//	  baseUrl: "http://localhost:8081"
//	  timeout: 10s
//	team:
//	  name: performance_test_team
//	  members:
//	    - userId: perf_user_1
//	      username: Performance User 1
//	      active: true
//	stages:
//	  - duration: 30s
//	    target: 5
//	  - duration: 30s
//	    target: 0
//	thresholds:
//	  http_req_duration: ["p(95)<500"]
type TestConfig struct {
	// Name of the test (for reporting)
	Name string `json:"name" yaml:"name"`

	// Description of the test (optional)
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Settings contains HTTP and execution settings
	Settings Settings `json:"settings,omitempty" yaml:"settings,omitempty"`

	// Team is the fixture provisioned before load starts
	Team TeamConfig `json:"team" yaml:"team"`

	// Stages is the ramping virtual-user schedule
	Stages []StageConfig `json:"stages" yaml:"stages"`

	// Pacing controls the sleep between iterations of a single VU
	Pacing PacingConfig `json:"pacing,omitempty" yaml:"pacing,omitempty"`

	// Thresholds maps a metric name to pass/fail expressions
	// e.g. http_req_duration: ["p(95)<500"]
	Thresholds map[string][]string `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	// Report controls where the generated artifacts go
	Report ReportConfig `json:"report,omitempty" yaml:"report,omitempty"`
}

// Settings contains HTTP and execution settings.
type Settings struct {
	// BaseURL of the service under test
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`

	// Timeout for a single pull-request creation call
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// SettleDelay is slept after fixture provisioning, before load begins
	SettleDelay Duration `json:"settleDelay,omitempty" yaml:"settleDelay,omitempty"`

	// GracefulStop is how long in-flight iterations may run after the schedule ends
	GracefulStop Duration `json:"gracefulStop,omitempty" yaml:"gracefulStop,omitempty"`

	// MaxRPS caps the global iteration rate (0 = unlimited)
	MaxRPS float64 `json:"maxRps,omitempty" yaml:"maxRps,omitempty"`

	// IDStrategy selects how pull_request_id is generated: "timestamp" or "uuid"
	IDStrategy string `json:"idStrategy,omitempty" yaml:"idStrategy,omitempty"`

	// MaxIdleConnsPerHost limits idle connections per host
	MaxIdleConnsPerHost int `json:"maxIdleConnsPerHost,omitempty" yaml:"maxIdleConnsPerHost,omitempty"`
}

// TeamConfig describes the team and its roster.
type TeamConfig struct {
	Name    string         `json:"name" yaml:"name"`
	Members []MemberConfig `json:"members" yaml:"members"`
}

// MemberConfig is a single roster entry.
type MemberConfig struct {
	UserID   string `json:"userId" yaml:"userId"`
	Username string `json:"username" yaml:"username"`
	Active   bool   `json:"active" yaml:"active"`
}

// StageConfig defines a single stage of the ramping schedule.
type StageConfig struct {
	// Duration of this stage (e.g., "30s", "2m")
	Duration Duration `json:"duration" yaml:"duration"`

	// Target VU count reached at the end of the stage
	Target int `json:"target" yaml:"target"`

	// Name is an optional name for this stage (for reporting)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// PacingConfig is a uniform random sleep in [Min, Max).
type PacingConfig struct {
	Min Duration `json:"min,omitempty" yaml:"min,omitempty"`
	Max Duration `json:"max,omitempty" yaml:"max,omitempty"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	// Dir is the directory the report artifacts are written to
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// FileName of the HTML report
	FileName string `json:"fileName,omitempty" yaml:"fileName,omitempty"`

	// SummaryExport, if set, is a path the raw summary JSON is written to
	SummaryExport string `json:"summaryExport,omitempty" yaml:"summaryExport,omitempty"`
}

// TotalDuration returns the sum of all stage durations.
func (c *TestConfig) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range c.Stages {
		total += time.Duration(s.Duration)
	}
	return total
}

// MaxTarget returns the highest VU target across all stages.
func (c *TestConfig) MaxTarget() int {
	max := 0
	for _, s := range c.Stages {
		if s.Target > max {
			max = s.Target
		}
	}
	return max
}

// Duration is a time.Duration that can be unmarshaled from JSON/YAML strings.
type Duration time.Duration

// GetDuration returns the duration or a default if empty.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if s == "" || s == "null" {
		*d = 0
		return nil
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}

	dur, err := ParseDurationString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
