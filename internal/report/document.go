package report

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"

	"github.com/andro-kes/prload/internal/summary"
)

const (
	// DefaultFileName is the report artifact name.
	DefaultFileName = "prload_report.html"

	// StdoutKey maps to TextSummary to request the console text summary.
	StdoutKey = "stdout"

	// TextSummary is the value of StdoutKey.
	TextSummary = "text-summary"
)

// Document maps an output artifact name to its content. Synthesize returns
// exactly two entries: the report file and the StdoutKey sentinel.
type Document map[string]string

// Options configures Synthesize.
type Options struct {
	// FileName of the report artifact; DefaultFileName if empty.
	FileName string
	Meta     Meta
}

// Synthesize builds the report document for stats. It never fails: if the
// report cannot be rendered a minimal page still carrying the chart data is
// used instead.
func Synthesize(stats summary.Stats, opts Options) Document {
	name := opts.FileName
	if name == "" || name == StdoutKey {
		name = DefaultFileName
	}

	charts := ComputeCharts(stats)

	content, err := Render(charts, opts.Meta)
	if err != nil {
		content = fallback(charts, withDefaults(opts.Meta))
	}

	return Document{
		name:      content,
		StdoutKey: TextSummary,
	}
}

// WantsTextSummary reports whether the console text summary was requested.
func (d Document) WantsTextSummary() bool {
	return d[StdoutKey] == TextSummary
}

// Artifacts returns the file artifact names, sorted.
func (d Document) Artifacts() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		if name != StdoutKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// WriteDocument writes every file artifact of doc into dir, creating it if
// needed, and returns the written paths.
func WriteDocument(doc Document, dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var paths []string
	for _, name := range doc.Artifacts() {
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, []byte(doc[name]), 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func fallback(charts Charts, meta Meta) string {
	title := html.EscapeString(meta.Title)
	return fmt.Sprintf(fallbackTemplate,
		title,
		title,
		html.EscapeString(formatTime(meta.Generated)),
		mustJSON(charts.Percentiles),
		mustJSON(charts.Checks),
		mustJSON(charts.Distribution),
	)
}

// mustJSON encodes a dataset, which only holds strings and finite floats.
func mustJSON(d Dataset) string {
	data, err := json.Marshal(d)
	if err != nil {
		return `{"labels":[],"data":[]}`
	}
	return string(data)
}
