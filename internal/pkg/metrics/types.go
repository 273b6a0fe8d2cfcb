package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry defines the interface for metrics collection
type Registry interface {
	// HTTP Metrics
	RecordHTTPRequest(method, path, statusCode string, duration float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()

	// Business Metrics
	IncURLsCreated()
	RecordRedirect(outcome string, cacheHit bool)
	RecordCacheLookup(hit bool)
	IncCacheTransportFailures(component, operation string)
	IncClickEventsDropped()

	// Prometheus-specific methods
	GetRegistry() *prometheus.Registry
	GetHandler() http.Handler
}

// NoOpRegistry provides a no-op implementation for when metrics are disabled
type NoOpRegistry struct{}

func NewNoOpRegistry() Registry {
	return &NoOpRegistry{}
}

func (n *NoOpRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {}
func (n *NoOpRegistry) IncHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) DecHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) IncURLsCreated()                                                     {}
func (n *NoOpRegistry) RecordRedirect(outcome string, cacheHit bool)                        {}
func (n *NoOpRegistry) RecordCacheLookup(hit bool)                                          {}
func (n *NoOpRegistry) IncCacheTransportFailures(component, operation string)               {}
func (n *NoOpRegistry) IncClickEventsDropped()                                              {}
func (n *NoOpRegistry) GetRegistry() *prometheus.Registry                                   { return nil }
func (n *NoOpRegistry) GetHandler() http.Handler                                            { return nil }

// Common label names as constants
const (
	LabelMethod      = "method"
	LabelPath        = "path"
	LabelStatusCode  = "status_code"
	LabelOperation   = "operation"
	LabelOutcome     = "outcome"
	LabelCacheStatus = "cache_status"
	LabelComponent   = "component"
)

// CacheStatus renders a cache lookup result as a label value.
func CacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
