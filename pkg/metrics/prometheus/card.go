// Package prometheus holds the Prometheus-backed implementations of the
// card daemon's metric collectors.
package prometheus

import (
	"github.com/marmos91/openpgpcard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CardMetrics records APDU dispatch and authorization activity.
type CardMetrics struct {
	apduTotal        *prometheus.CounterVec
	verifyFailures   *prometheus.CounterVec
	retryBlocked     *prometheus.GaugeVec
	sigCounter       prometheus.Gauge
}

// NewCardMetrics creates a new Prometheus-backed card metrics instance.
// Returns nil if metrics are not enabled (InitRegistry not called), so
// every recording method below is a safe no-op on a nil receiver.
func NewCardMetrics() *CardMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &CardMetrics{
		apduTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "openpgpcard_apdu_total",
				Help: "Total number of APDUs dispatched, by instruction byte",
			},
			[]string{"ins"},
		),
		verifyFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "openpgpcard_verify_failures_total",
				Help: "Total number of failed VERIFY attempts, by password reference",
			},
			[]string{"ref"},
		),
		retryBlocked: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "openpgpcard_retry_counter_blocked",
				Help: "1 if the password reference's retry counter is at zero (blocked), else 0",
			},
			[]string{"ref"},
		),
		sigCounter: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "openpgpcard_signature_counter",
				Help: "Current value of the 24-bit digital signature counter",
			},
		),
	}
}

// RecordAPDU records dispatch of one APDU with the given instruction byte.
func (m *CardMetrics) RecordAPDU(ins byte) {
	if m == nil {
		return
	}
	m.apduTotal.WithLabelValues(insLabel(ins)).Inc()
}

// RecordVerifyFailure records a failed VERIFY attempt for a password reference.
func (m *CardMetrics) RecordVerifyFailure(ref string) {
	if m == nil {
		return
	}
	m.verifyFailures.WithLabelValues(ref).Inc()
}

// SetRetryBlocked records whether a password reference is currently blocked.
func (m *CardMetrics) SetRetryBlocked(ref string, blocked bool) {
	if m == nil {
		return
	}
	v := 0.0
	if blocked {
		v = 1.0
	}
	m.retryBlocked.WithLabelValues(ref).Set(v)
}

// SetSignatureCounter records the current value of the signature counter.
func (m *CardMetrics) SetSignatureCounter(value uint32) {
	if m == nil {
		return
	}
	m.sigCounter.Set(float64(value))
}

func insLabel(ins byte) string {
	switch ins {
	case 0x20:
		return "VERIFY"
	case 0x24:
		return "CHANGE_REFERENCE_DATA"
	case 0x2C:
		return "RESET_RETRY_COUNTER"
	case 0x2A:
		return "PERFORM_SECURITY_OPERATION"
	case 0x47:
		return "GENERATE_ASYMMETRIC_KEY_PAIR"
	case 0x82:
		return "INTERNAL_AUTHENTICATE"
	case 0xA4:
		return "SELECT"
	case 0xCA, 0xCB:
		return "GET_DATA"
	case 0xDA, 0xDB:
		return "PUT_DATA"
	case 0x22:
		return "MANAGE_SECURITY_ENVIRONMENT"
	case 0x44:
		return "ACTIVATE_FILE"
	case 0xE6:
		return "TERMINATE_DF"
	default:
		return "UNKNOWN"
	}
}
