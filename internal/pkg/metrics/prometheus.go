package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sp3dr4/shortlink/config"
)

// PrometheusRegistry implements the Registry interface using Prometheus metrics
type PrometheusRegistry struct {
	registry *prometheus.Registry
	config   config.MetricsConfig

	// HTTP Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business Metrics
	urlsCreatedTotal        prometheus.Counter
	redirectsTotal          *prometheus.CounterVec
	cacheLookupsTotal       *prometheus.CounterVec
	cacheFailuresTotal      *prometheus.CounterVec
	clickEventsDroppedTotal prometheus.Counter
}

// NewPrometheusRegistry creates a new Prometheus metrics registry
func NewPrometheusRegistry(cfg config.MetricsConfig) (Registry, error) {
	registry := prometheus.NewRegistry()

	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}
	}

	httpRequestsTotal := prometheus.NewCounterVec(
		counterOpts("http_requests_total", "Total number of HTTP requests"),
		[]string{LabelMethod, LabelPath, LabelStatusCode},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath, LabelStatusCode},
	)

	httpRequestsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	urlsCreatedTotal := prometheus.NewCounter(
		counterOpts("urls_created_total", "Total number of URLs created"),
	)

	redirectsTotal := prometheus.NewCounterVec(
		counterOpts("redirects_total", "Resolved redirect requests by outcome and cache status"),
		[]string{LabelOutcome, LabelCacheStatus},
	)

	cacheLookupsTotal := prometheus.NewCounterVec(
		counterOpts("cache_lookups_total", "Resolution cache lookups by result"),
		[]string{LabelCacheStatus},
	)

	cacheFailuresTotal := prometheus.NewCounterVec(
		counterOpts("cache_transport_failures_total", "Cache transport failures degraded to miss or zero"),
		[]string{LabelComponent, LabelOperation},
	)

	clickEventsDroppedTotal := prometheus.NewCounter(
		counterOpts("click_events_dropped_total", "Click events that could not be recorded durably"),
	)

	metricsCollectors := []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,
		urlsCreatedTotal,
		redirectsTotal,
		cacheLookupsTotal,
		cacheFailuresTotal,
		clickEventsDroppedTotal,
	}

	for _, collector := range metricsCollectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	if cfg.CollectRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return &PrometheusRegistry{
		registry:                registry,
		config:                  cfg,
		httpRequestsTotal:       httpRequestsTotal,
		httpRequestDuration:     httpRequestDuration,
		httpRequestsInFlight:    httpRequestsInFlight,
		urlsCreatedTotal:        urlsCreatedTotal,
		redirectsTotal:          redirectsTotal,
		cacheLookupsTotal:       cacheLookupsTotal,
		cacheFailuresTotal:      cacheFailuresTotal,
		clickEventsDroppedTotal: clickEventsDroppedTotal,
	}, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration
func (p *PrometheusRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {
	labels := prometheus.Labels{
		LabelMethod:     method,
		LabelPath:       path,
		LabelStatusCode: statusCode,
	}
	p.httpRequestsTotal.With(labels).Inc()
	p.httpRequestDuration.With(labels).Observe(duration)
}

func (p *PrometheusRegistry) IncHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Inc()
}

func (p *PrometheusRegistry) DecHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Dec()
}

func (p *PrometheusRegistry) IncURLsCreated() {
	p.urlsCreatedTotal.Inc()
}

// RecordRedirect counts a terminal redirect outcome
func (p *PrometheusRegistry) RecordRedirect(outcome string, cacheHit bool) {
	p.redirectsTotal.WithLabelValues(outcome, CacheStatus(cacheHit)).Inc()
}

func (p *PrometheusRegistry) RecordCacheLookup(hit bool) {
	p.cacheLookupsTotal.WithLabelValues(CacheStatus(hit)).Inc()
}

func (p *PrometheusRegistry) IncCacheTransportFailures(component, operation string) {
	p.cacheFailuresTotal.WithLabelValues(component, operation).Inc()
}

func (p *PrometheusRegistry) IncClickEventsDropped() {
	p.clickEventsDroppedTotal.Inc()
}

// GetRegistry returns the underlying Prometheus registry
func (p *PrometheusRegistry) GetRegistry() *prometheus.Registry {
	return p.registry
}

// GetHandler returns an HTTP handler for the metrics endpoint
func (p *PrometheusRegistry) GetHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
