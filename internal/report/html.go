package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/andro-kes/prload/internal/threshold"
)

// Meta is report context that does not come from the summary.
type Meta struct {
	Title     string
	Generated time.Time

	// Thresholds are shown with an overall verdict when non-empty.
	Thresholds []threshold.Result
}

// ReportData contains all data needed to render the HTML report.
type ReportData struct {
	Charts
	Meta

	Passed bool

	PercentilesJSON  template.JS
	ChecksJSON       template.JS
	DistributionJSON template.JS
}

// Render lays charts out as a complete HTML document.
func Render(charts Charts, meta Meta) (string, error) {
	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	data := ReportData{
		Charts: charts,
		Meta:   withDefaults(meta),
		Passed: thresholdsPassed(meta.Thresholds),
	}
	if data.PercentilesJSON, err = datasetJS(charts.Percentiles); err != nil {
		return "", err
	}
	if data.ChecksJSON, err = datasetJS(charts.Checks); err != nil {
		return "", err
	}
	if data.DistributionJSON, err = datasetJS(charts.Distribution); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func withDefaults(meta Meta) Meta {
	if meta.Title == "" {
		meta.Title = "PR Creation Load Test Report"
	}
	if meta.Generated.IsZero() {
		meta.Generated = time.Now()
	}
	return meta
}

func thresholdsPassed(results []threshold.Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func datasetJS(d Dataset) (template.JS, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode dataset: %w", err)
	}
	return template.JS(data), nil
}

// templateFuncs returns the template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatNumber":  formatNumber,
		"formatFixed":   formatFixed,
		"formatLatency": formatLatency,
		"formatTime":    formatTime,
	}
}

// formatNumber formats a count with thousands separators.
func formatNumber(v float64) string {
	n := int64(v)
	if n < 0 {
		return "-" + formatNumber(float64(-n))
	}

	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var sb strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// formatFixed formats v with the given number of decimals.
func formatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// formatLatency formats a millisecond value in a human-readable way.
func formatLatency(ms float64) string {
	switch {
	case ms == 0:
		return "0ms"
	case ms < 1:
		return fmt.Sprintf("%.0fµs", ms*1000)
	case ms < 10:
		return fmt.Sprintf("%.2fms", ms)
	case ms < 1000:
		return fmt.Sprintf("%.1fms", ms)
	default:
		return fmt.Sprintf("%.2fs", ms/1000)
	}
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}
