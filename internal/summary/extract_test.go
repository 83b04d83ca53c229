package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	doc := []byte(`{
		"state": {"testRunDurationMs": 1500},
		"metrics": {
			"http_reqs": {"type": "counter", "values": {"count": 42, "rate": 2.1}},
			"weird": {"values": {"p(95)": 7, "flag": true, "text": "12.5", "junk": "abc", "nothing": null}},
			"scalar": 5
		},
		"checks": [{"name": "a", "passes": 3, "fails": 1}]
	}`)

	tests := []struct {
		name string
		path string
		def  float64
		want float64
	}{
		{"number", "metrics.http_reqs.values.count", -1, 42},
		{"nested state", "state.testRunDurationMs", -1, 1500},
		{"missing leaf", "metrics.http_reqs.values.p95", -1, -1},
		{"missing metric", "metrics.http_req_duration.values.avg", -1, -1},
		{"special characters", "metrics.weird.values.p(95)", -1, 7},
		{"boolean true", "metrics.weird.values.flag", -1, 1},
		{"numeric string", "metrics.weird.values.text", -1, 12.5},
		{"non numeric string", "metrics.weird.values.junk", -1, -1},
		{"null leaf", "metrics.weird.values.nothing", -1, -1},
		{"traverse through scalar", "metrics.scalar.values", -1, -1},
		{"object is not a number", "metrics.http_reqs.values", -1, -1},
		{"array index", "checks.0.passes", -1, 3},
		{"empty segment", "metrics..http_reqs", -1, -1},
		{"empty path", "", -1, -1},
		{"wildcard is literal", "metrics.http_*.values.count", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(doc, tt.path, tt.def))
		})
	}
}

func TestExtract_Totality(t *testing.T) {
	inputs := map[string][]byte{
		"nil":         nil,
		"empty":       {},
		"null":        []byte("null"),
		"empty obj":   []byte("{}"),
		"array":       []byte("[1,2,3]"),
		"number":      []byte("3"),
		"malformed":   []byte(`{"metrics": {"http_reqs": `),
		"binary junk": {0xff, 0xfe, 0x00, '{'},
		"null metric": []byte(`{"metrics": {"http_reqs": null}}`),
		"null values": []byte(`{"metrics": {"http_reqs": {"values": null}}}`),
	}

	paths := []string{
		PathTotalRequests, PathChecksRate, PathCheckPasses, PathCheckFails,
		PathAvgLatency, PathMinLatency, PathMedLatency, PathP90Latency,
		PathP95Latency, PathMaxLatency, PathFailedRate, PathTestRunDuration,
		PathPRsCreated, PathErrors, PathPRSuccessRate,
	}

	for name, doc := range inputs {
		for _, path := range paths {
			assert.Equal(t, 0.0, Extract(doc, path, 0), "%s: %s", name, path)
			assert.Equal(t, 99.0, Extract(doc, path, 99), "%s: %s", name, path)
		}
	}
}

func TestLookup(t *testing.T) {
	doc := []byte(`{"a": {"b": {"c": "x"}}}`)

	res, ok := Lookup(doc, "a.b.c")
	assert.True(t, ok)
	assert.Equal(t, "x", res.String())

	_, ok = Lookup(doc, "a.b.c.d")
	assert.False(t, ok)

	_, ok = Lookup([]byte("not json"), "a")
	assert.False(t, ok)
}
