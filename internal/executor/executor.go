// Package executor runs scenario iterations on a pool of virtual users whose
// size follows a ramping schedule.
package executor

import (
	"context"
	"time"
)

// IterationFunc runs one iteration for one VU. It must return promptly once
// ctx is done.
type IterationFunc func(ctx context.Context)

// Phase describes what the schedule is doing at a point in time.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseRampUp   Phase = "ramp-up"
	PhaseSteady   Phase = "steady"
	PhaseRampDown Phase = "ramp-down"
	PhaseDone     Phase = "done"
)

// DefaultGracefulStop is how long in-flight iterations may finish after the
// schedule ends before they are interrupted.
const DefaultGracefulStop = 30 * time.Second

// Stage defines a stage of the schedule.
type Stage struct {
	// Duration of this stage
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Target VU count reached linearly by the end of the stage
	Target int `json:"target" yaml:"target"`

	// Optional name for this stage (for reporting)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Config contains configuration for an executor.
type Config struct {
	Stages []Stage `json:"stages" yaml:"stages"`

	// Graceful stop timeout
	GracefulStop time.Duration `json:"gracefulStop,omitempty" yaml:"gracefulStop,omitempty"`

	// MaxRPS caps iteration starts per second across all VUs (0 = unlimited)
	MaxRPS float64 `json:"maxRps,omitempty" yaml:"maxRps,omitempty"`
}

// Validate validates the executor configuration.
func (c *Config) Validate() error {
	if len(c.Stages) == 0 {
		return &ValidationError{Field: "stages", Message: "at least one stage is required"}
	}
	for _, s := range c.Stages {
		if s.Duration <= 0 {
			return &ValidationError{Field: "stages", Message: "stage duration must be > 0"}
		}
		if s.Target < 0 {
			return &ValidationError{Field: "stages", Message: "stage target cannot be negative"}
		}
	}
	if c.GracefulStop < 0 {
		return &ValidationError{Field: "gracefulStop", Message: "cannot be negative"}
	}
	if c.MaxRPS < 0 {
		return &ValidationError{Field: "maxRps", Message: "cannot be negative"}
	}
	return nil
}

// TotalDuration is the sum of all stage durations.
func (c *Config) TotalDuration() time.Duration {
	var total time.Duration
	for _, stage := range c.Stages {
		total += stage.Duration
	}
	return total
}

// Stats contains real-time executor statistics.
type Stats struct {
	// Timing
	StartTime     time.Time     `json:"startTime"`
	Elapsed       time.Duration `json:"elapsed"`
	TotalDuration time.Duration `json:"totalDuration"`

	// VU stats
	ActiveVUs int `json:"activeVUs"`
	TargetVUs int `json:"targetVUs"`

	Iterations int64 `json:"iterations"`

	// Stage info
	CurrentStage     int    `json:"currentStage"`
	CurrentStageName string `json:"currentStageName"`
	TotalStages      int    `json:"totalStages"`
	Phase            Phase  `json:"phase"`
}

// TargetAt returns the VU target at elapsed and the index of the stage it
// falls in. Within a stage the target moves linearly from the previous
// stage's target (0 before the first stage), rounded to nearest. Past the
// end it is the last stage's target.
func TargetAt(stages []Stage, elapsed time.Duration) (target, stage int) {
	if len(stages) == 0 {
		return 0, 0
	}
	if elapsed < 0 {
		elapsed = 0
	}

	var stageStart time.Duration
	prevTarget := 0

	for i, s := range stages {
		stageEnd := stageStart + s.Duration

		if elapsed < stageEnd {
			progress := float64(elapsed-stageStart) / float64(s.Duration)
			if progress < 0 {
				progress = 0
			}
			if progress > 1 {
				progress = 1
			}

			vus := float64(prevTarget) + float64(s.Target-prevTarget)*progress
			return int(vus + 0.5), i
		}

		prevTarget = s.Target
		stageStart = stageEnd
	}

	return stages[len(stages)-1].Target, len(stages) - 1
}

// PhaseAt classifies stage i by comparing its target with the previous one.
func PhaseAt(stages []Stage, i int) Phase {
	if i < 0 || i >= len(stages) {
		return PhaseDone
	}

	prevTarget := 0
	if i > 0 {
		prevTarget = stages[i-1].Target
	}

	switch target := stages[i].Target; {
	case target > prevTarget:
		return PhaseRampUp
	case target < prevTarget:
		return PhaseRampDown
	default:
		return PhaseSteady
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on field '" + e.Field + "': " + e.Message
}
