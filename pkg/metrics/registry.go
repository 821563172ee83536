// Package metrics provides the Prometheus registry shared by the card
// daemon's metric collectors. Collectors call IsEnabled before doing any
// work so that a daemon run with metrics disabled pays zero overhead.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection and creates the Prometheus
// registry that collectors will register against. Call once at daemon
// startup when config.MetricsConfig.Enabled is true.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the active Prometheus registry, or nil if
// InitRegistry has not been called.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
