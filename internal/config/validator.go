package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/andro-kes/prload/internal/threshold"
)

// schemaJSON describes the accepted shape of a workload file. Semantic rules
// that a schema cannot express live in Validate.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "duration": {"type": ["string", "integer"]}
  },
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "settings": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "baseUrl": {"type": "string"},
        "timeout": {"$ref": "#/definitions/duration"},
        "settleDelay": {"$ref": "#/definitions/duration"},
        "gracefulStop": {"$ref": "#/definitions/duration"},
        "maxRps": {"type": "number", "minimum": 0},
        "idStrategy": {"enum": ["timestamp", "uuid"]},
        "maxIdleConnsPerHost": {"type": "integer", "minimum": 0}
      }
    },
    "team": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "members": {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["userId"],
            "properties": {
              "userId": {"type": "string", "minLength": 1},
              "username": {"type": "string"},
              "active": {"type": "boolean"}
            }
          }
        }
      }
    },
    "stages": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["duration", "target"],
        "properties": {
          "duration": {"$ref": "#/definitions/duration"},
          "target": {"type": "integer", "minimum": 0},
          "name": {"type": "string"}
        }
      }
    },
    "pacing": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "min": {"$ref": "#/definitions/duration"},
        "max": {"$ref": "#/definitions/duration"}
      }
    },
    "thresholds": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    },
    "report": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "dir": {"type": "string"},
        "fileName": {"type": "string"},
        "summaryExport": {"type": "string"}
      }
    }
  }
}`

var compiledSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("prload.schema.json", strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("invalid embedded config schema: %v", err))
	}
	compiledSchema = compiler.MustCompile("prload.schema.json")
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateSchema checks a raw YAML or JSON workload document against the
// embedded schema.
func ValidateSchema(data []byte, path string) error {
	var doc interface{}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
		// Round-trip through JSON so the validator sees JSON value types.
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("config is not representable as JSON: %w", err)
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("config is not representable as JSON: %w", err)
		}
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}

// Validate validates the entire test configuration.
//
// Returns nil if valid, or a ValidationErrors containing all validation errors.
func (c *TestConfig) Validate() error {
	errs := &ValidationErrors{}

	validateSettings(&c.Settings, errs)
	validateTeam(&c.Team, errs)

	if len(c.Stages) == 0 {
		errs.Add("stages", "at least one stage is required")
	}
	for i, stage := range c.Stages {
		prefix := fmt.Sprintf("stages[%d]", i)
		if stage.Duration <= 0 {
			errs.Add(prefix+".duration", "duration must be greater than 0")
		}
		if stage.Target < 0 {
			errs.Add(prefix+".target", "target cannot be negative")
		}
	}

	if c.Pacing.Min < 0 || c.Pacing.Max < 0 {
		errs.Add("pacing", "pacing bounds cannot be negative")
	} else if c.Pacing.Max < c.Pacing.Min {
		errs.Add("pacing.max", "max must be greater than or equal to min")
	}

	validateThresholds(c.Thresholds, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateSettings(s *Settings, errs *ValidationErrors) {
	if s.BaseURL == "" {
		errs.Add("settings.baseUrl", "base URL is required")
	} else if u, err := url.Parse(s.BaseURL); err != nil {
		errs.Add("settings.baseUrl", fmt.Sprintf("invalid URL: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("settings.baseUrl", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	if s.Timeout < 0 {
		errs.Add("settings.timeout", "timeout cannot be negative")
	}
	if s.MaxRPS < 0 {
		errs.Add("settings.maxRps", "maxRps cannot be negative")
	}

	switch s.IDStrategy {
	case "", IDStrategyTimestamp, IDStrategyUUID:
	default:
		errs.Add("settings.idStrategy", fmt.Sprintf("unknown id strategy: %s", s.IDStrategy))
	}
}

func validateTeam(t *TeamConfig, errs *ValidationErrors) {
	if t.Name == "" {
		errs.Add("team.name", "team name is required")
	}
	if len(t.Members) == 0 {
		errs.Add("team.members", "at least one member is required")
	}

	seen := make(map[string]bool, len(t.Members))
	for i, m := range t.Members {
		if m.UserID == "" {
			errs.Add(fmt.Sprintf("team.members[%d].userId", i), "userId is required")
			continue
		}
		if seen[m.UserID] {
			errs.Add(fmt.Sprintf("team.members[%d].userId", i), fmt.Sprintf("duplicate userId %q", m.UserID))
		}
		seen[m.UserID] = true
	}
}

func validateThresholds(thresholds map[string][]string, errs *ValidationErrors) {
	metrics := make([]string, 0, len(thresholds))
	for metric := range thresholds {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	for _, metric := range metrics {
		for i, expr := range thresholds[metric] {
			if _, err := threshold.Parse(metric, expr); err != nil {
				errs.Add(fmt.Sprintf("thresholds.%s[%d]", metric, i), err.Error())
			}
		}
	}
}
