// Package metrics exports snap run counters in the Prometheus text format,
// for node_exporter's textfile collector or any scraper reading a file.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/roadsnap/internal/engine"
)

const namespace = "roadsnap"

// Recorder holds the run metrics in a private registry.
type Recorder struct {
	registry *prometheus.Registry

	deleted       prometheus.Counter
	multipart     prometheus.Counter
	snappedPairs  prometheus.Counter
	neighborhoods prometheus.Counter
	unresolved    prometheus.Counter
	duration      prometheus.Gauge
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.deleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_lines_total",
		Help:      "Lines removed by the short-segment filter.",
	})
	r.multipart = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "multipart_warnings_total",
		Help:      "Multipart lines truncated to their first part.",
	})
	r.snappedPairs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapped_pairs_total",
		Help:      "Endpoints moved onto an anchor endpoint.",
	})
	r.neighborhoods = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "neighborhoods_total",
		Help:      "Neighborhoods processed.",
	})
	r.unresolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unresolved_neighborhoods_total",
		Help:      "Neighborhoods where no endpoint moved.",
	})
	r.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last snap run.",
	})

	r.registry.MustRegister(
		r.deleted,
		r.multipart,
		r.snappedPairs,
		r.neighborhoods,
		r.unresolved,
		r.duration,
	)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe adds the counts of a finished run.
func (r *Recorder) Observe(res *engine.Result) {
	if res == nil {
		return
	}
	r.deleted.Add(float64(res.Deleted))
	r.multipart.Add(float64(res.MultipartWarnings))
	r.snappedPairs.Add(float64(res.SnappedPairs))
	r.neighborhoods.Add(float64(res.Neighborhoods))
	r.unresolved.Add(float64(res.UnresolvedNeighborhoods))
	r.duration.Set(res.Duration.Seconds())
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
