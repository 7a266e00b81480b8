package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.Deduped(5, 3, 1)
	m.Merged(2, 1, 1, 0)
	m.Rejected(2)
	m.Observe("ingest", 25*time.Millisecond)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "toolcatalog_records_total")
	assert.Contains(t, names, "toolcatalog_unique_records_total")
	assert.Contains(t, names, "toolcatalog_duplicate_groups_total")
	assert.Contains(t, names, "toolcatalog_merge_outcomes_total")
	assert.Contains(t, names, "toolcatalog_rejected_records_total")
	assert.Contains(t, names, "toolcatalog_operation_duration_seconds")
	assert.Contains(t, names, "toolcatalog_last_batch_unique_records")
}

// value returns the counter or gauge value of the named series, matching
// labels given as name/value pairs.
func value(t *testing.T, g prometheus.Gatherer, name string, labels ...string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for i := 0; i+1 < len(labels); i += 2 {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == labels[i] && lp.GetValue() == labels[i+1] {
						found = true
					}
				}
				if !found {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.Deduped(5, 3, 1)
	m.Deduped(4, 4, 0)
	m.Merged(2, 1, 1, 0)
	m.Merged(1, 0, 0, 3)
	m.Rejected(2)

	assert.Equal(t, 9.0, value(t, registry, "toolcatalog_records_total"))
	assert.Equal(t, 7.0, value(t, registry, "toolcatalog_unique_records_total"))
	assert.Equal(t, 1.0, value(t, registry, "toolcatalog_duplicate_groups_total"))
	assert.Equal(t, 4.0, value(t, registry, "toolcatalog_last_batch_unique_records"))
	assert.Equal(t, 3.0, value(t, registry, "toolcatalog_merge_outcomes_total", "outcome", "added"))
	assert.Equal(t, 3.0, value(t, registry, "toolcatalog_merge_outcomes_total", "outcome", "review"))
	assert.Equal(t, 2.0, value(t, registry, "toolcatalog_rejected_records_total"))
}

func TestWriteTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	m.Deduped(5, 3, 1)

	path := filepath.Join(t.TempDir(), "textfile", "toolcatalog.prom")
	require.NoError(t, WriteTextfile(path, registry))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# TYPE toolcatalog_records_total counter")
	assert.Contains(t, string(data), "toolcatalog_records_total 5")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
