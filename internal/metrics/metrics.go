// Package metrics exports reconciliation outcomes as Prometheus metrics.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
)

const namespace = "toolcatalog"

// Metrics records batch outcomes. It implements reconciler.Recorder.
type Metrics struct {
	records    prometheus.Counter
	unique     prometheus.Counter
	groups     prometheus.Counter
	outcomes   *prometheus.CounterVec
	rejected   prometheus.Counter
	duration   *prometheus.HistogramVec
	lastUnique prometheus.Gauge
}

var _ reconciler.Recorder = (*Metrics)(nil)

// New registers the metrics with registerer, or the default registerer
// when it is nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		records: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records passed to deduplication",
		}),
		unique: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unique_records_total",
			Help:      "Records kept after deduplication",
		}),
		groups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_groups_total",
			Help:      "Clusters of two or more duplicate records",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_outcomes_total",
			Help:      "Records folded into a catalog, by outcome",
		}, []string{"outcome"}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_records_total",
			Help:      "Records rejected by validation",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of reconciliation operations in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		}, []string{"operation"}),
		lastUnique: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_batch_unique_records",
			Help:      "Unique records in the most recent batch",
		}),
	}
}

// Deduped records one deduplication pass.
func (m *Metrics) Deduped(records, unique, groups int) {
	m.records.Add(float64(records))
	m.unique.Add(float64(unique))
	m.groups.Add(float64(groups))
	m.lastUnique.Set(float64(unique))
}

// Merged records one merge pass.
func (m *Metrics) Merged(added, updated, skipped, review int) {
	m.outcomes.WithLabelValues("added").Add(float64(added))
	m.outcomes.WithLabelValues("updated").Add(float64(updated))
	m.outcomes.WithLabelValues("skipped").Add(float64(skipped))
	m.outcomes.WithLabelValues("review").Add(float64(review))
}

// Rejected records validation rejections.
func (m *Metrics) Rejected(n int) {
	m.rejected.Add(float64(n))
}

// Observe records how long an operation took.
func (m *Metrics) Observe(operation string, d time.Duration) {
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// WriteTextfile writes everything gatherer collects in the Prometheus text
// format, for node_exporter's textfile collector. The file is replaced
// atomically.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return errors.WrapResource("gather", "metrics", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".metrics.*")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	encoder := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			tmp.Close() //nolint:errcheck,gosec
			return errors.WrapIO("write", tmp.Name(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}
