// Package output renders a run to the console: a live progress line while
// load is running and a text summary of every metric at the end.
package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Title   *color.Color
	Label   *color.Color
	Value   *color.Color
	Good    *color.Color
	Warn    *color.Color
	Bad     *color.Color
	Dim     *color.Color
	Section *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:   color.New(color.FgCyan, color.Bold),
		Label:   color.New(color.FgWhite),
		Value:   color.New(color.FgCyan),
		Good:    color.New(color.FgGreen),
		Warn:    color.New(color.FgYellow),
		Bad:     color.New(color.FgRed),
		Dim:     color.New(color.Faint),
		Section: color.New(color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range []*color.Color{
		scheme.Title, scheme.Label, scheme.Value, scheme.Good,
		scheme.Warn, scheme.Bad, scheme.Dim, scheme.Section,
	} {
		c.DisableColor()
	}
	return scheme
}

// schemeFor enables colors explicitly so output does not depend on the
// global color.NoColor, which looks at stdout only.
func schemeFor(useColors bool) *ColorScheme {
	if !useColors {
		return NoColorScheme()
	}
	scheme := DefaultColorScheme()
	for _, c := range []*color.Color{
		scheme.Title, scheme.Label, scheme.Value, scheme.Good,
		scheme.Warn, scheme.Bad, scheme.Dim, scheme.Section,
	} {
		c.EnableColor()
	}
	return scheme
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SupportsColors reports whether colored output should be used on w.
// NO_COLOR disables and FORCE_COLOR enables colors regardless of w.
func SupportsColors(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	if term == "dumb" {
		return false
	}
	return IsTerminal(w)
}

const (
	iconPass = "✓"
	iconFail = "✗"
)
