package output

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/andro-kes/prload/internal/metrics"
	"github.com/andro-kes/prload/internal/summary"
	"github.com/andro-kes/prload/internal/threshold"
)

const nameWidth = 32

// trendKeys are printed in this order, with k6-style labels.
var trendKeys = []struct{ key, label string }{
	{"avg", "avg"},
	{"min", "min"},
	{"med", "med"},
	{"max", "max"},
	{"p90", "p(90)"},
	{"p95", "p(95)"},
}

// WriteTextSummary writes a summary of every metric in doc to w. Metrics with
// thresholds are marked with the threshold verdict. It works on any input;
// a document without metrics prints an empty summary.
func WriteTextSummary(w io.Writer, doc summary.Document, thresholds []threshold.Result, useColors bool) {
	scheme := schemeFor(useColors)
	verdicts := thresholdVerdicts(thresholds)

	writeChecks(w, doc, scheme)

	var names []string
	metricsObj := gjson.Result{}
	if gjson.ValidBytes(doc) {
		metricsObj = gjson.GetBytes(doc, "metrics")
	}
	if metricsObj.IsObject() {
		metricsObj.ForEach(func(key, _ gjson.Result) bool {
			names = append(names, key.String())
			return true
		})
	}
	sort.Strings(names)

	for _, name := range names {
		m, _ := summary.Lookup(doc, "metrics."+name)
		line := formatMetric(name, m, scheme)
		if line == "" {
			continue
		}

		mark := " "
		if passed, ok := verdicts[name]; ok {
			if passed {
				mark = scheme.Good.Sprint(iconPass)
			} else {
				mark = scheme.Bad.Sprint(iconFail)
			}
		}

		fmt.Fprintf(w, "   %s %s: %s\n", mark, dotted(name, scheme), line)
	}

	if len(thresholds) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, scheme.Section.Sprint("   thresholds"))
		for _, t := range thresholds {
			icon := scheme.Good.Sprint(iconPass)
			if !t.Passed {
				icon = scheme.Bad.Sprint(iconFail)
			}
			line := fmt.Sprintf("     %s %s %s (actual: %s)", icon, t.Metric, t.Expression, formatFloat(t.Actual))
			if t.Message != "" && !t.Passed {
				line += " " + scheme.Dim.Sprint(t.Message)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func writeChecks(w io.Writer, doc summary.Document, scheme *ColorScheme) {
	checks, ok := summary.Lookup(doc, "checks")
	if !ok || !checks.IsArray() || len(checks.Array()) == 0 {
		return
	}

	for _, c := range checks.Array() {
		name := c.Get("name").String()
		passes := c.Get("passes").Float()
		fails := c.Get("fails").Float()

		if fails == 0 {
			fmt.Fprintf(w, "     %s %s\n", scheme.Good.Sprint(iconPass), name)
			continue
		}

		fmt.Fprintf(w, "     %s %s\n", scheme.Bad.Sprint(iconFail), name)
		pct := 0.0
		if total := passes + fails; total > 0 {
			pct = passes / total * 100
		}
		fmt.Fprintf(w, "      %s %.0f%% %s %s / %s %s\n",
			scheme.Dim.Sprint("↳"), pct,
			scheme.Good.Sprint(iconPass), formatFloat(passes),
			scheme.Bad.Sprint(iconFail), formatFloat(fails))
	}
	fmt.Fprintln(w)
}

func formatMetric(name string, m gjson.Result, scheme *ColorScheme) string {
	values := m.Get("values")
	if !values.IsObject() {
		return ""
	}
	v := func(key string) float64 {
		return summary.Extract([]byte(values.Raw), key, 0)
	}

	switch metrics.Type(m.Get("type").String()) {
	case metrics.TypeTrend:
		parts := make([]string, 0, len(trendKeys))
		for _, k := range trendKeys {
			val := v(k.key)
			formatted := formatMs(val)
			if !isDurationMetric(name) {
				formatted = formatFloat(val)
			}
			parts = append(parts, fmt.Sprintf("%s=%s", k.label, scheme.Value.Sprint(formatted)))
		}
		return strings.Join(parts, " ")

	case metrics.TypeRate:
		return fmt.Sprintf("%s %s %s %s %s",
			scheme.Value.Sprintf("%.2f%%", v("rate")*100),
			scheme.Good.Sprint(iconPass), formatFloat(v("passes")),
			scheme.Bad.Sprint(iconFail), formatFloat(v("fails")))

	case metrics.TypeCounter:
		return fmt.Sprintf("%s %s",
			scheme.Value.Sprint(formatFloat(v("count"))),
			scheme.Dim.Sprintf("%.2f/s", v("rate")))

	case metrics.TypeGauge:
		return fmt.Sprintf("%s min=%s max=%s",
			scheme.Value.Sprint(formatFloat(v("value"))),
			formatFloat(v("min")), formatFloat(v("max")))

	default:
		return ""
	}
}

// isDurationMetric reports whether a trend holds milliseconds. Every trend
// this tool records does.
func isDurationMetric(name string) bool {
	return strings.HasSuffix(name, "_duration")
}

func dotted(name string, scheme *ColorScheme) string {
	if len(name) >= nameWidth {
		return scheme.Label.Sprint(name)
	}
	return scheme.Label.Sprint(name) + scheme.Dim.Sprint(strings.Repeat(".", nameWidth-len(name)))
}

// formatMs formats milliseconds the way k6 does: µs, ms, or s.
func formatMs(ms float64) string {
	switch {
	case ms == 0:
		return "0s"
	case ms < 1:
		return fmt.Sprintf("%.2fµs", ms*1000)
	case ms < 1000:
		return fmt.Sprintf("%.2fms", ms)
	default:
		return fmt.Sprintf("%.2fs", ms/1000)
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.4g", v)
}

func thresholdVerdicts(results []threshold.Result) map[string]bool {
	verdicts := make(map[string]bool)
	for _, r := range results {
		passed, seen := verdicts[r.Metric]
		verdicts[r.Metric] = (passed || !seen) && r.Passed
	}
	return verdicts
}
