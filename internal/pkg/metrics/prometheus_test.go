package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/config"
)

func newTestRegistry(t *testing.T) *PrometheusRegistry {
	t.Helper()
	registry, err := NewPrometheusRegistry(config.MetricsConfig{
		Enabled:   true,
		Path:      "/metrics",
		Namespace: "test",
		Subsystem: "test",
	})
	require.NoError(t, err)
	return registry.(*PrometheusRegistry)
}

func TestNewPrometheusRegistry(t *testing.T) {
	tests := []struct {
		name   string
		config config.MetricsConfig
	}{
		{
			name: "with runtime collectors",
			config: config.MetricsConfig{
				Enabled:        true,
				Path:           "/metrics",
				Namespace:      "shortlink",
				Subsystem:      "redirect",
				CollectRuntime: true,
			},
		},
		{
			name: "minimal config",
			config: config.MetricsConfig{
				Enabled:   true,
				Path:      "/metrics",
				Namespace: "test",
				Subsystem: "test",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := NewPrometheusRegistry(tt.config)
			require.NoError(t, err)
			assert.NotNil(t, registry.GetRegistry())
			assert.NotNil(t, registry.GetHandler())
		})
	}
}

func TestPrometheusRegistry_RedirectMetrics(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordRedirect("redirect", true)
	registry.RecordRedirect("redirect", true)
	registry.RecordRedirect("redirect", false)
	registry.RecordRedirect("not_found", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(registry.redirectsTotal.WithLabelValues("redirect", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.redirectsTotal.WithLabelValues("redirect", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.redirectsTotal.WithLabelValues("not_found", "miss")))
}

func TestPrometheusRegistry_CacheMetrics(t *testing.T) {
	registry := newTestRegistry(t)

	registry.RecordCacheLookup(true)
	registry.RecordCacheLookup(false)
	registry.RecordCacheLookup(false)
	registry.IncCacheTransportFailures("resolution_cache", "get")
	registry.IncClickEventsDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(registry.cacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(registry.cacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.cacheFailuresTotal.WithLabelValues("resolution_cache", "get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.clickEventsDroppedTotal))
}

func TestPrometheusRegistry_Handler(t *testing.T) {
	registry := newTestRegistry(t)
	registry.IncURLsCreated()
	registry.RecordHTTPRequest("GET", "/{shortCode}", "307", 0.01)

	rr := httptest.NewRecorder()
	registry.GetHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "test_test_urls_created_total"))
	assert.True(t, strings.Contains(body, "test_test_http_requests_total"))
}

func TestNoOpRegistry(t *testing.T) {
	registry := NewNoOpRegistry()

	assert.NotPanics(t, func() {
		registry.RecordHTTPRequest("GET", "/test", "200", 0.1)
		registry.IncHTTPRequestsInFlight()
		registry.DecHTTPRequestsInFlight()
		registry.IncURLsCreated()
		registry.RecordRedirect("redirect", true)
		registry.RecordCacheLookup(false)
		registry.IncCacheTransportFailures("click_counter", "incr")
		registry.IncClickEventsDropped()

		assert.Nil(t, registry.GetRegistry())
		assert.Nil(t, registry.GetHandler())
	})
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":                             "/",
		"/":                            "/",
		"/health":                      "/health",
		"/metrics":                     "/metrics",
		"/swagger/index.html":          "/swagger/*",
		"/api/v1/urls":                 "/api/v1/urls",
		"/api/v1/urls/":                "/api/v1/urls",
		"/api/v1/urls/abc123":          "/api/v1/urls/{shortCode}",
		"/api/v1/analytics/abc/clicks": "/api/v1/analytics/*",
		"/abc123":                      "/{shortCode}",
		"/a/b":                         "/a/b",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), "path %q", in)
	}
}
