package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the reference workload.
const (
	DefaultName         = "PR creation load test"
	DefaultBaseURL      = "http://localhost:8081"
	DefaultTeamName     = "performance_test_team"
	DefaultTimeout      = 10 * time.Second
	DefaultSettleDelay  = 2 * time.Second
	DefaultGracefulStop = 30 * time.Second
	DefaultPacingMin    = time.Second
	DefaultPacingMax    = 3 * time.Second
	DefaultReportFile   = "prload_report.html"
	DefaultRosterSize   = 5

	IDStrategyTimestamp = "timestamp"
	IDStrategyUUID      = "uuid"
)

// LoadConfig loads a test configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// The raw document is checked against the embedded JSON schema before it is
// decoded, and defaults are applied to the result.
func LoadConfig(path string) (*TestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension.
func ParseConfig(data []byte, path string) (*TestConfig, error) {
	if err := ValidateSchema(data, path); err != nil {
		return nil, err
	}

	var cfg TestConfig

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns the reference workload: a five member team, a
// 30s/1m/2m/30s ramp to 15 VUs and back, and the three reference thresholds.
func DefaultConfig() *TestConfig {
	cfg := &TestConfig{}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultStages returns the reference ramp.
func DefaultStages() []StageConfig {
	return []StageConfig{
		{Duration: Duration(30 * time.Second), Target: 5},
		{Duration: Duration(time.Minute), Target: 10},
		{Duration: Duration(2 * time.Minute), Target: 15},
		{Duration: Duration(30 * time.Second), Target: 0},
	}
}

// DefaultThresholds returns the reference pass/fail criteria.
func DefaultThresholds() map[string][]string {
	return map[string][]string{
		"http_req_duration":        {"p(95)<500"},
		"http_req_failed":          {"rate<0.1"},
		"pr_creation_success_rate": {"rate>0.95"},
	}
}

// DefaultMembers returns the reference roster perf_user_1..perf_user_n.
func DefaultMembers(n int) []MemberConfig {
	members := make([]MemberConfig, n)
	for i := range members {
		members[i] = MemberConfig{
			UserID:   fmt.Sprintf("perf_user_%d", i+1),
			Username: fmt.Sprintf("Performance User %d", i+1),
			Active:   true,
		}
	}
	return members
}

// ApplyDefaults fills every unset field with its reference value.
func ApplyDefaults(cfg *TestConfig) {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Settings.BaseURL == "" {
		cfg.Settings.BaseURL = DefaultBaseURL
	}
	cfg.Settings.BaseURL = strings.TrimRight(cfg.Settings.BaseURL, "/")
	if cfg.Settings.Timeout == 0 {
		cfg.Settings.Timeout = Duration(DefaultTimeout)
	}
	if cfg.Settings.SettleDelay == 0 {
		cfg.Settings.SettleDelay = Duration(DefaultSettleDelay)
	}
	if cfg.Settings.GracefulStop == 0 {
		cfg.Settings.GracefulStop = Duration(DefaultGracefulStop)
	}
	if cfg.Settings.IDStrategy == "" {
		cfg.Settings.IDStrategy = IDStrategyTimestamp
	}
	if cfg.Settings.MaxIdleConnsPerHost == 0 {
		cfg.Settings.MaxIdleConnsPerHost = 100
	}

	if cfg.Team.Name == "" {
		cfg.Team.Name = DefaultTeamName
	}
	if len(cfg.Team.Members) == 0 {
		cfg.Team.Members = DefaultMembers(DefaultRosterSize)
	}

	if cfg.Pacing.Min == 0 && cfg.Pacing.Max == 0 {
		cfg.Pacing.Min = Duration(DefaultPacingMin)
		cfg.Pacing.Max = Duration(DefaultPacingMax)
	}

	if len(cfg.Stages) == 0 {
		cfg.Stages = DefaultStages()
	}
	for i := range cfg.Stages {
		if cfg.Stages[i].Name == "" {
			cfg.Stages[i].Name = fmt.Sprintf("stage-%d", i+1)
		}
	}

	// An explicit empty mapping disables thresholds.
	if cfg.Thresholds == nil {
		cfg.Thresholds = DefaultThresholds()
	}

	if cfg.Report.Dir == "" {
		cfg.Report.Dir = "."
	}
	if cfg.Report.FileName == "" {
		cfg.Report.FileName = DefaultReportFile
	}
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
func ParseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	if seconds, err := strconv.Atoi(s); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// ParseStages parses stages from the CLI format "30s:10,2m:10,30s:0".
func ParseStages(stagesStr string) ([]StageConfig, error) {
	var stages []StageConfig

	parts := strings.Split(stagesStr, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		colonIdx := strings.LastIndex(part, ":")
		if colonIdx == -1 {
			return nil, fmt.Errorf("stage %d: expected 'duration:target' format, got '%s'", i+1, part)
		}

		durationStr := part[:colonIdx]
		targetStr := part[colonIdx+1:]

		d, err := ParseDurationString(durationStr)
		if err != nil {
			return nil, fmt.Errorf("stage %d: invalid duration '%s': %w", i+1, durationStr, err)
		}

		target, err := strconv.Atoi(targetStr)
		if err != nil {
			return nil, fmt.Errorf("stage %d: invalid target '%s': %w", i+1, targetStr, err)
		}

		stages = append(stages, StageConfig{
			Duration: Duration(d),
			Target:   target,
			Name:     fmt.Sprintf("stage-%d", i+1),
		})
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}

	return stages, nil
}
