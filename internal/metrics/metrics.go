// Package metrics counts knowledge-graph retrievals with Prometheus
// collectors. A Recorder owns its registry so each CLI invocation (and each
// test) starts from zero.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Retrieval outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder holds the retrieval collectors.
type Recorder struct {
	registry  *prometheus.Registry
	retrieved *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		retrieved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "protofetch",
				Name:      "retrievals_total",
				Help:      "Knowledge-graph retrievals by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "protofetch",
				Name:      "retrieval_duration_seconds",
				Help:      "Knowledge-graph retrieval duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
	r.registry.MustRegister(r.retrieved, r.duration)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one retrieval against source.
func (r *Recorder) Observe(source string, err error, d time.Duration) {
	r.retrieved.WithLabelValues(source, outcome(err)).Inc()
	r.duration.WithLabelValues(source).Observe(d.Seconds())
}

// Count returns the counter for source and outcome.
func (r *Recorder) Count(source, outcome string) prometheus.Counter {
	return r.retrieved.WithLabelValues(source, outcome)
}

// Meter wraps an accessor so each Retrieve is observed under source.
func (r *Recorder) Meter(a types.Accessor, source string) types.Accessor {
	return types.AccessorFunc(func(ctx context.Context, id string, crossBucket bool) (*types.Entity, error) {
		start := time.Now()
		e, err := a.Retrieve(ctx, id, crossBucket)
		r.Observe(source, err, time.Since(start))
		return e, err
	})
}

// WriteTextfile writes the current metrics in the Prometheus text format to
// path, for pickup by a node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeFound
	case errors.Is(err, types.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
