package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prload"

// Exporter exposes a Registry as Prometheus metrics while a run is in progress.
//
// It is an unchecked collector: the set of metrics grows as the run registers
// new ones, so Describe sends nothing and every Collect reads the registry afresh.
type Exporter struct {
	reg *Registry
}

// NewExporter creates an exporter over reg.
func NewExporter(reg *Registry) *Exporter {
	return &Exporter{reg: reg}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	elapsed := e.reg.Elapsed()

	for _, m := range e.reg.Metrics() {
		switch m := m.(type) {
		case *Counter:
			desc := prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", m.Name()+"_total"),
				"Counter "+m.Name(), nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Count()))

		case *Gauge:
			desc := prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", m.Name()),
				"Gauge "+m.Name(), nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(m.Value()))

		case *Rate:
			values := m.Values(elapsed)
			ratio := prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", m.Name()+"_ratio"),
				"Share of true observations of "+m.Name(), nil, nil)
			ch <- prometheus.MustNewConstMetric(ratio, prometheus.GaugeValue, values["rate"])

			total := prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", m.Name()+"_observations_total"),
				"Observations of "+m.Name()+" by outcome", []string{"outcome"}, nil)
			ch <- prometheus.MustNewConstMetric(total, prometheus.CounterValue, values["passes"], "pass")
			ch <- prometheus.MustNewConstMetric(total, prometheus.CounterValue, values["fails"], "fail")

		case *Trend:
			values := m.Values(elapsed)
			desc := prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", m.Name()+"_seconds"),
				"Duration trend "+m.Name(), nil, nil)
			count := values["count"]
			ch <- prometheus.MustNewConstSummary(desc,
				uint64(count),
				values["avg"]*count/1000,
				map[float64]float64{
					0.5:  values["med"] / 1000,
					0.9:  values["p90"] / 1000,
					0.95: values["p95"] / 1000,
					0.99: values["p99"] / 1000,
				},
			)
		}
	}
}

// Handler returns an HTTP handler serving reg in the Prometheus exposition format.
func Handler(reg *Registry) http.Handler {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(NewExporter(reg))
	return promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
}

var _ prometheus.Collector = (*Exporter)(nil)
