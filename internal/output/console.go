package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/andro-kes/prload/internal/executor"
	"github.com/andro-kes/prload/internal/summary"
	"github.com/andro-kes/prload/internal/threshold"
)

const (
	clearLine      = "\r\033[2K"
	progressWidth  = 30
	progressFilled = "="
	progressEmpty  = "-"
	headerWidth    = 56
)

// LiveStats is a snapshot of a running test for the progress line.
type LiveStats struct {
	executor.Stats

	Requests   int64
	PRsCreated int64
	Errors     int64
}

// Progress returns elapsed over total duration, clamped to [0, 1].
func (s LiveStats) Progress() float64 {
	if s.TotalDuration <= 0 {
		return 0
	}
	p := float64(s.Elapsed) / float64(s.TotalDuration)
	if p > 1 {
		return 1
	}
	return p
}

// ConsoleConfig configures a Console.
type ConsoleConfig struct {
	Writer    io.Writer
	Quiet     bool
	NoColor   bool
	TestName  string
	BaseURL   string
	ForceLive bool
}

// Console prints the run header, a live progress line and the final summary.
// The progress line is only drawn on a terminal.
type Console struct {
	writer   io.Writer
	scheme   *ColorScheme
	colors   bool
	isTTY    bool
	quiet    bool
	testName string
	baseURL  string

	mu       sync.Mutex
	drawn    bool
	lastLine string
}

// NewConsole creates a console. A nil writer means stdout.
func NewConsole(cfg ConsoleConfig) *Console {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	colors := !cfg.NoColor && SupportsColors(w)

	return &Console{
		writer:   w,
		scheme:   schemeFor(colors),
		colors:   colors,
		isTTY:    cfg.ForceLive || IsTerminal(w),
		quiet:    cfg.Quiet,
		testName: cfg.TestName,
		baseURL:  cfg.BaseURL,
	}
}

// PrintHeader prints the test name, target and schedule.
func (c *Console) PrintHeader(stages []executor.Stage, maxVUs int) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := strings.Repeat("─", headerWidth)
	var total time.Duration
	for _, s := range stages {
		total += s.Duration
	}

	fmt.Fprintln(c.writer, c.scheme.Title.Sprint(line))
	fmt.Fprintln(c.writer, c.scheme.Section.Sprint(c.testName))
	fmt.Fprintln(c.writer, c.scheme.Title.Sprint(line))
	if c.baseURL != "" {
		fmt.Fprintf(c.writer, "  %s %s\n", c.scheme.Label.Sprint("target:  "), c.baseURL)
	}
	fmt.Fprintf(c.writer, "  %s up to %d VUs over %s (%d stages)\n",
		c.scheme.Label.Sprint("schedule:"), maxVUs, formatDuration(total), len(stages))
	for i, s := range stages {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("stage-%d", i+1)
		}
		fmt.Fprintf(c.writer, "    %s %s → %d VUs\n", c.scheme.Dim.Sprintf("%-10s", name), formatDuration(s.Duration), s.Target)
	}
	fmt.Fprintln(c.writer)
}

// Update redraws the progress line.
func (c *Console) Update(stats LiveStats) {
	if c.quiet || !c.isTTY {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastLine = c.renderLive(stats)
	fmt.Fprint(c.writer, clearLine+c.lastLine)
	c.drawn = true
}

// Finish ends the progress line so later output starts on a fresh line.
func (c *Console) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawn {
		fmt.Fprintln(c.writer)
		c.drawn = false
	}
}

func (c *Console) renderLive(s LiveStats) string {
	progress := s.Progress()

	phase := string(s.Phase)
	if s.TotalStages > 0 {
		phase = fmt.Sprintf("%s %d/%d", s.Phase, s.CurrentStage+1, s.TotalStages)
	}

	errs := c.scheme.Good.Sprint(s.Errors)
	if s.Errors > 0 {
		errs = c.scheme.Bad.Sprint(s.Errors)
	}

	return fmt.Sprintf("%s %3.0f%% %s/%s  %s  vus=%s/%d reqs=%s created=%s errors=%s",
		c.scheme.Good.Sprint(renderProgressBar(progress, progressWidth)),
		progress*100,
		formatDuration(s.Elapsed), formatDuration(s.TotalDuration),
		c.scheme.Dim.Sprint(phase),
		c.scheme.Value.Sprint(s.ActiveVUs), s.TargetVUs,
		c.scheme.Value.Sprint(s.Requests),
		c.scheme.Value.Sprint(s.PRsCreated),
		errs)
}

// PrintSummary prints the text summary and the verdict. artifacts are the
// files written for the run.
func (c *Console) PrintSummary(doc summary.Document, results []threshold.Result, artifacts []string) {
	if c.quiet {
		return
	}

	c.Finish()

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.writer)
	WriteTextSummary(c.writer, doc, results, c.colors)
	fmt.Fprintln(c.writer)

	if len(artifacts) > 0 {
		for _, a := range artifacts {
			fmt.Fprintf(c.writer, "  %s %s\n", c.scheme.Label.Sprint("report:"), a)
		}
		fmt.Fprintln(c.writer)
	}

	passed := true
	for _, r := range results {
		passed = passed && r.Passed
	}
	if passed {
		fmt.Fprintln(c.writer, c.scheme.Good.Sprint(iconPass+" all thresholds passed"))
	} else {
		fmt.Fprintln(c.writer, c.scheme.Bad.Sprint(iconFail+" some thresholds have failed"))
	}
}

func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return "[" + strings.Repeat(progressFilled, filled) + strings.Repeat(progressEmpty, width-filled) + "]"
}

// formatDuration formats a duration as 1m05s or 12s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", m, s)
}
