package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *Registry) map[string]*dto.MetricFamily {
	t.Helper()

	promReg := prometheus.NewRegistry()
	require.NoError(t, promReg.Register(NewExporter(reg)))

	families, err := promReg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func TestExporter_Counters(t *testing.T) {
	reg := NewRegistry()
	reg.Counter(Errors).Add(3)

	assert.Equal(t, 1, testutil.CollectAndCount(NewExporter(reg), "prload_errors_total"))

	families := gather(t, reg)
	f, ok := families["prload_errors_total"]
	require.True(t, ok)
	assert.Equal(t, 3.0, f.GetMetric()[0].GetCounter().GetValue())
}

func TestExporter_RateAndTrend(t *testing.T) {
	reg := NewRegistry()
	sink := NewSink(reg)
	for i := 0; i < 9; i++ {
		sink.AddSuccess(true)
		sink.AddDuration(100 * time.Millisecond)
	}
	sink.AddSuccess(false)
	sink.AddDuration(100 * time.Millisecond)

	families := gather(t, reg)

	ratio := families["prload_pr_creation_success_rate_ratio"]
	require.NotNil(t, ratio)
	assert.InDelta(t, 0.9, ratio.GetMetric()[0].GetGauge().GetValue(), 1e-9)

	obs := families["prload_pr_creation_success_rate_observations_total"]
	require.NotNil(t, obs)
	assert.Len(t, obs.GetMetric(), 2)

	summary := families["prload_create_pr_duration_seconds"]
	require.NotNil(t, summary)
	s := summary.GetMetric()[0].GetSummary()
	assert.Equal(t, uint64(10), s.GetSampleCount())
	assert.InDelta(t, 1.0, s.GetSampleSum(), 1e-6)
}

func TestHandler_ServesExposition(t *testing.T) {
	reg := NewRegistry()
	reg.Counter(TotalPRsCreated).Add(7)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "prload_total_prs_created_total 7")
}
