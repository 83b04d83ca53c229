package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Built-in metric names, recorded for every HTTP call and iteration.
const (
	HTTPReqs          = "http_reqs"
	HTTPReqDuration   = "http_req_duration"
	HTTPReqFailed     = "http_req_failed"
	Checks            = "checks"
	Iterations        = "iterations"
	IterationDuration = "iteration_duration"
	VUs               = "vus"
	VUsMax            = "vus_max"
)

// Scenario metric names.
const (
	CreatePRDuration      = "create_pr_duration"
	PRCreationSuccessRate = "pr_creation_success_rate"
	TotalPRsCreated       = "total_prs_created"
	Errors                = "errors"
)

// Registry holds every metric of a run, keyed by name.
//
// # Thread Safety
//
// Registry is safe for concurrent use. Lookups take a read lock; the metrics
// themselves are individually synchronized.
type Registry struct {
	start time.Time

	mu      sync.RWMutex
	metrics map[string]Metric

	checksMu   sync.Mutex
	checks     map[string]*Rate
	checkOrder []string
}

// CheckResult is the outcome tally of a single named check.
type CheckResult struct {
	Name   string `json:"name"`
	Passes int64  `json:"passes"`
	Fails  int64  `json:"fails"`
}

// NewRegistry creates a registry with the built-in metrics pre-registered.
func NewRegistry() *Registry {
	r := &Registry{
		start:   time.Now(),
		metrics: make(map[string]Metric),
		checks:  make(map[string]*Rate),
	}

	r.Counter(HTTPReqs)
	r.Trend(HTTPReqDuration)
	r.Rate(HTTPReqFailed)
	r.Rate(Checks)
	r.Counter(Iterations)
	r.Trend(IterationDuration)
	r.Gauge(VUs)
	r.Gauge(VUsMax)

	return r
}

// Trend returns the trend registered under name, creating it if needed.
func (r *Registry) Trend(name string) *Trend {
	return getOrCreate(r, name, newTrend)
}

// Rate returns the rate registered under name, creating it if needed.
func (r *Registry) Rate(name string) *Rate {
	return getOrCreate(r, name, newRate)
}

// Counter returns the counter registered under name, creating it if needed.
func (r *Registry) Counter(name string) *Counter {
	return getOrCreate(r, name, newCounter)
}

// Gauge returns the gauge registered under name, creating it if needed.
func (r *Registry) Gauge(name string) *Gauge {
	return getOrCreate(r, name, newGauge)
}

// getOrCreate panics when name is already registered with another type;
// metric names are compile-time constants so that is a programming error.
func getOrCreate[M Metric](r *Registry, name string, create func(string) M) M {
	r.mu.RLock()
	existing, ok := r.metrics[name]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		existing, ok = r.metrics[name]
		if !ok {
			m := create(name)
			r.metrics[name] = m
			r.mu.Unlock()
			return m
		}
		r.mu.Unlock()
	}

	m, typed := existing.(M)
	if !typed {
		panic(fmt.Sprintf("metric %q already registered as %s", name, existing.Type()))
	}
	return m
}

// Metrics returns all registered metrics sorted by name.
func (r *Registry) Metrics() []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metric, 0, len(r.metrics))
	for _, m := range r.metrics {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Elapsed returns the time since the registry was created.
func (r *Registry) Elapsed() time.Duration {
	return time.Since(r.start)
}

// StartTime returns when the registry was created.
func (r *Registry) StartTime() time.Time {
	return r.start
}

// RecordHTTP records one HTTP call into http_reqs, http_req_duration and http_req_failed.
func (r *Registry) RecordHTTP(d time.Duration, failed bool) {
	r.Counter(HTTPReqs).Add(1)
	r.Trend(HTTPReqDuration).Add(d)
	r.Rate(HTTPReqFailed).Add(failed)
}

// RecordIteration records one completed iteration.
func (r *Registry) RecordIteration(d time.Duration) {
	r.Counter(Iterations).Add(1)
	r.Trend(IterationDuration).Add(d)
}

// Check records a named check into the aggregate checks rate and its own tally.
func (r *Registry) Check(name string, ok bool) {
	r.Rate(Checks).Add(ok)

	r.checksMu.Lock()
	rate, exists := r.checks[name]
	if !exists {
		rate = newRate(name)
		r.checks[name] = rate
		r.checkOrder = append(r.checkOrder, name)
	}
	r.checksMu.Unlock()

	rate.Add(ok)
}

// Checks returns per-check tallies in first-seen order.
func (r *Registry) Checks() []CheckResult {
	r.checksMu.Lock()
	defer r.checksMu.Unlock()

	result := make([]CheckResult, 0, len(r.checkOrder))
	for _, name := range r.checkOrder {
		rate := r.checks[name]
		result = append(result, CheckResult{
			Name:   name,
			Passes: rate.Passes(),
			Fails:  rate.Fails(),
		})
	}
	return result
}

// SetVUs updates the vus gauge and raises vus_max if needed.
func (r *Registry) SetVUs(n int) {
	r.Gauge(VUs).Set(int64(n))

	max := r.Gauge(VUsMax)
	if int64(n) > max.Value() {
		max.Set(int64(n))
	}
}
