package supres

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-image counters for one run. Batch jobs don't expose an
// HTTP endpoint, so the registry is flushed to a node-exporter textfile.
type Metrics struct {
	reg       *prometheus.Registry
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics returns a Metrics backed by a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supres_images_processed_total",
			Help: "Images handled, partitioned by weight set and result.",
		}, []string{"weights", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "supres_image_duration_seconds",
			Help:    "Wall time spent decoding, upscaling and writing one image.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"weights"}),
	}
	m.reg.MustRegister(m.processed, m.duration)
	return m
}

// Observe records one image. A nil Metrics is a no-op.
func (m *Metrics) Observe(ws WeightSet, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.processed.WithLabelValues(string(ws), result).Inc()
	m.duration.WithLabelValues(string(ws)).Observe(d.Seconds())
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

// WriteFile writes the metrics in text exposition format to path.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
