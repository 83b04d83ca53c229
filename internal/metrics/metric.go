// Package metrics provides the thread-safe metric accumulators a load test
// run records into: trends, rates, counters and gauges, kept in a Registry.
package metrics

import (
	"sync/atomic"
	"time"
)

// Type identifies the kind of a metric.
type Type string

const (
	TypeTrend   Type = "trend"
	TypeRate    Type = "rate"
	TypeCounter Type = "counter"
	TypeGauge   Type = "gauge"
)

// Metric is a named accumulator that can report its aggregated values.
type Metric interface {
	Name() string
	Type() Type

	// Values returns the aggregated values keyed by statistic name.
	// elapsed is the run time so far, used for per-second rates.
	Values(elapsed time.Duration) map[string]float64
}

// Rate tracks the share of true observations.
type Rate struct {
	name   string
	passes atomic.Int64
	fails  atomic.Int64
}

func newRate(name string) *Rate {
	return &Rate{name: name}
}

func (r *Rate) Name() string { return r.name }
func (r *Rate) Type() Type   { return TypeRate }

// Add records one observation.
func (r *Rate) Add(ok bool) {
	if ok {
		r.passes.Add(1)
	} else {
		r.fails.Add(1)
	}
}

// Passes returns the number of true observations.
func (r *Rate) Passes() int64 { return r.passes.Load() }

// Fails returns the number of false observations.
func (r *Rate) Fails() int64 { return r.fails.Load() }

// Total returns the number of observations.
func (r *Rate) Total() int64 { return r.passes.Load() + r.fails.Load() }

// Values returns rate, passes and fails.
func (r *Rate) Values(time.Duration) map[string]float64 {
	passes := r.passes.Load()
	fails := r.fails.Load()

	rate := 0.0
	if total := passes + fails; total > 0 {
		rate = float64(passes) / float64(total)
	}

	return map[string]float64{
		"rate":   rate,
		"passes": float64(passes),
		"fails":  float64(fails),
	}
}

// Counter is a monotonic sum.
type Counter struct {
	name  string
	value atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Type() Type   { return TypeCounter }

// Add increments the counter. Negative deltas are ignored.
func (c *Counter) Add(n int64) {
	if n > 0 {
		c.value.Add(n)
	}
}

// Count returns the current sum.
func (c *Counter) Count() int64 { return c.value.Load() }

// Values returns count and the per-second rate over elapsed.
func (c *Counter) Values(elapsed time.Duration) map[string]float64 {
	count := float64(c.value.Load())

	rate := 0.0
	if elapsed > 0 {
		rate = count / elapsed.Seconds()
	}

	return map[string]float64{
		"count": count,
		"rate":  rate,
	}
}

// Gauge holds the last set value and the observed extremes.
type Gauge struct {
	name  string
	value atomic.Int64
	min   atomic.Int64
	max   atomic.Int64
	set   atomic.Bool
}

func newGauge(name string) *Gauge {
	return &Gauge{name: name}
}

func (g *Gauge) Name() string { return g.name }
func (g *Gauge) Type() Type   { return TypeGauge }

// Set stores v and updates min/max.
func (g *Gauge) Set(v int64) {
	g.value.Store(v)

	if g.set.CompareAndSwap(false, true) {
		g.min.Store(v)
		g.max.Store(v)
		return
	}

	for {
		cur := g.min.Load()
		if v >= cur || g.min.CompareAndSwap(cur, v) {
			break
		}
	}
	for {
		cur := g.max.Load()
		if v <= cur || g.max.CompareAndSwap(cur, v) {
			break
		}
	}
}

// Value returns the last set value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Values returns value, min and max.
func (g *Gauge) Values(time.Duration) map[string]float64 {
	return map[string]float64{
		"value": float64(g.value.Load()),
		"min":   float64(g.min.Load()),
		"max":   float64(g.max.Load()),
	}
}
