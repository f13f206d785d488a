// Package metrics records build counters on a private Prometheus registry
// and exports them for the node-exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

// Recorder owns the registry for one CLI invocation.
type Recorder struct {
	registry *prometheus.Registry
	rows     *prometheus.CounterVec
	duration *prometheus.GaugeVec
	success  *prometheus.GaugeVec
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geopanel_rows_total",
				Help: "Rows processed by build stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geopanel_build_duration_seconds",
				Help: "Wall time of the last build by stage",
			},
			[]string{"stage"},
		),
		success: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geopanel_build_last_success_timestamp_seconds",
				Help: "Unix time of the last successful build by stage",
			},
			[]string{"stage"},
		),
	}
	r.registry.MustRegister(r.rows, r.duration, r.success)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// AddRows adds n rows with the given outcome to stage.
func (r *Recorder) AddRows(stage, outcome string, n int) {
	if n <= 0 {
		return
	}
	r.rows.WithLabelValues(stage, outcome).Add(float64(n))
}

// AddCounts adds every named count to stage, one outcome per key.
func (r *Recorder) AddCounts(stage string, counts map[string]int) {
	for outcome, n := range counts {
		r.AddRows(stage, outcome, n)
	}
}

// ObserveBuild records the duration of a stage, and its completion time
// when err is nil.
func (r *Recorder) ObserveBuild(stage string, started time.Time, err error) {
	r.duration.WithLabelValues(stage).Set(time.Since(started).Seconds())
	if err == nil {
		r.success.WithLabelValues(stage).SetToCurrentTime()
	}
}

// WriteTextfile writes the registry to path in the text exposition format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
