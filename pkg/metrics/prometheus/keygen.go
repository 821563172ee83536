package prometheus

import (
	"time"

	"github.com/marmos91/openpgpcard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// KeyGenMetrics records background key-generation pump activity.
type KeyGenMetrics struct {
	queueDepth *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
}

// NewKeyGenMetrics creates a new Prometheus-backed key-generation metrics
// instance. Returns nil if metrics are not enabled.
func NewKeyGenMetrics() *KeyGenMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &KeyGenMetrics{
		queueDepth: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "openpgpcard_keygen_queue_depth",
				Help: "Number of ready candidate keys queued per slot",
			},
			[]string{"slot"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openpgpcard_keygen_duration_seconds",
				Help:    "Time to generate one candidate key, by algorithm",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"slot", "algorithm"},
		),
	}
}

// SetQueueDepth records the current number of ready candidates for a slot.
func (m *KeyGenMetrics) SetQueueDepth(slot string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(slot).Set(float64(depth))
}

// ObserveGeneration records the time taken to generate one candidate key.
func (m *KeyGenMetrics) ObserveGeneration(slot, algorithm string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(slot, algorithm).Observe(d.Seconds())
}
