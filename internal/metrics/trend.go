package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs to 1 hour, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Trend accumulates duration samples.
//
// Percentiles come from an HDR histogram; min, max and avg are tracked exactly.
// RecordValue on the histogram is not thread-safe, so every access holds mu.
type Trend struct {
	name string

	mu    sync.Mutex
	hist  *hdrhistogram.Histogram
	count int64
	sum   time.Duration
	min   time.Duration
	max   time.Duration
}

func newTrend(name string) *Trend {
	return &Trend{
		name: name,
		hist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
	}
}

// Name returns the metric name.
func (t *Trend) Name() string { return t.name }

// Type returns TypeTrend.
func (t *Trend) Type() Type { return TypeTrend }

// Add records one sample.
func (t *Trend) Add(d time.Duration) {
	if d < 0 {
		d = 0
	}

	micros := d.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.hist.RecordValue(micros)
	t.count++
	t.sum += d
	if t.count == 1 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
}

// Count returns the number of recorded samples.
func (t *Trend) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Values returns avg, min, med, max, p90, p95, p99 and count, durations in milliseconds.
func (t *Trend) Values(time.Duration) map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	values := map[string]float64{
		"avg": 0, "min": 0, "med": 0, "max": 0,
		"p90": 0, "p95": 0, "p99": 0, "count": 0,
	}
	if t.count == 0 {
		return values
	}

	lo, hi := millis(t.min), millis(t.max)
	quantile := func(q float64) float64 {
		v := float64(t.hist.ValueAtQuantile(q)) / 1000
		return math.Min(math.Max(v, lo), hi)
	}

	values["avg"] = millis(t.sum) / float64(t.count)
	values["min"] = lo
	values["max"] = hi
	values["med"] = quantile(50)
	values["p90"] = quantile(90)
	values["p95"] = quantile(95)
	values["p99"] = quantile(99)
	values["count"] = float64(t.count)
	return values
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
