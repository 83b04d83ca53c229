// Package threshold parses and evaluates pass/fail criteria over a summary
// document.
//
// An expression names an aggregation of one metric, a comparison operator and
// a limit:
//
//	p(95)<500
//	p95 < 500ms
//	rate<0.1
//	count>100
//
// Duration limits are converted to milliseconds, the unit trend values are
// reported in.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andro-kes/prload/internal/summary"
)

var exprPattern = regexp.MustCompile(`^([a-z]+[0-9]*|p\(\s*[0-9]+\s*\))\s*(<=|>=|==|!=|<|>)\s*(.+)$`)

// aggregations lists the value keys a threshold may reference. p50 is an alias
// of med.
var aggregations = map[string]string{
	"avg":    "avg",
	"min":    "min",
	"med":    "med",
	"max":    "max",
	"p50":    "med",
	"p90":    "p90",
	"p95":    "p95",
	"p99":    "p99",
	"rate":   "rate",
	"count":  "count",
	"value":  "value",
	"passes": "passes",
	"fails":  "fails",
}

// Threshold is a parsed expression bound to a metric.
type Threshold struct {
	Metric     string
	Expression string

	// Aggregation is the normalized value key, e.g. "p95" for "p(95)".
	Aggregation string
	Operator    string
	Limit       float64
}

// Result is the outcome of evaluating one threshold.
type Result struct {
	Metric     string  `json:"metric"`
	Expression string  `json:"expression"`
	Actual     float64 `json:"actual"`
	Limit      float64 `json:"limit"`
	Passed     bool    `json:"passed"`
	Message    string  `json:"message,omitempty"`
}

// Parse parses expr as a threshold on metric.
func Parse(metric, expr string) (Threshold, error) {
	t := Threshold{Metric: metric, Expression: expr}

	if strings.TrimSpace(metric) == "" {
		return t, fmt.Errorf("metric name cannot be empty")
	}

	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return t, fmt.Errorf("threshold expression cannot be empty")
	}

	matches := exprPattern.FindStringSubmatch(trimmed)
	if len(matches) != 4 {
		return t, fmt.Errorf("invalid expression format: %s", expr)
	}

	agg := normalizeAggregation(matches[1])
	key, ok := aggregations[agg]
	if !ok {
		return t, fmt.Errorf("unknown aggregation %q (expected one of %s)", matches[1], strings.Join(knownAggregations(), ", "))
	}

	limit, err := parseLimit(strings.TrimSpace(matches[3]))
	if err != nil {
		return t, err
	}

	t.Aggregation = key
	t.Operator = matches[2]
	t.Limit = limit
	return t, nil
}

// Path returns the summary path of the value the threshold compares.
func (t Threshold) Path() string {
	return "metrics." + t.Metric + ".values." + t.Aggregation
}

// Evaluate compares the threshold against doc. A metric or value absent from
// the document is read as 0.
func (t Threshold) Evaluate(doc []byte) Result {
	actual := summary.Extract(doc, t.Path(), 0)

	result := Result{
		Metric:     t.Metric,
		Expression: t.Expression,
		Actual:     actual,
		Limit:      t.Limit,
		Passed:     compare(actual, t.Operator, t.Limit),
	}
	if !result.Passed {
		result.Message = fmt.Sprintf("%s is %.4g, threshold: %s %.4g", t.Aggregation, actual, t.Operator, t.Limit)
	}
	return result
}

// EvaluateAll evaluates every expression of every metric in thresholds,
// ordered by metric name. An expression that fails to parse yields a failed
// result. The boolean reports whether all thresholds passed.
func EvaluateAll(thresholds map[string][]string, doc []byte) ([]Result, bool) {
	metrics := make([]string, 0, len(thresholds))
	for metric := range thresholds {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	var results []Result
	passed := true
	for _, metric := range metrics {
		for _, expr := range thresholds[metric] {
			t, err := Parse(metric, expr)
			if err != nil {
				results = append(results, Result{
					Metric:     metric,
					Expression: expr,
					Message:    fmt.Sprintf("failed to parse expression: %v", err),
				})
				passed = false
				continue
			}

			r := t.Evaluate(doc)
			if !r.Passed {
				passed = false
			}
			results = append(results, r)
		}
	}

	return results, passed
}

func normalizeAggregation(agg string) string {
	if strings.HasPrefix(agg, "p(") {
		return "p" + strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(agg, "p("), ")"))
	}
	return agg
}

func knownAggregations() []string {
	keys := make([]string, 0, len(aggregations))
	for k := range aggregations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseLimit accepts a plain number or a Go duration, the latter returned in
// milliseconds.
func parseLimit(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("threshold value must be finite: %s", s)
		}
		return v, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold value %q: expected a number or a duration like 500ms", s)
	}
	return float64(d) / float64(time.Millisecond), nil
}

func compare(actual float64, op string, limit float64) bool {
	switch op {
	case "<":
		return actual < limit
	case "<=":
		return actual <= limit
	case ">":
		return actual > limit
	case ">=":
		return actual >= limit
	case "==":
		return actual == limit
	case "!=":
		return actual != limit
	default:
		return false
	}
}
