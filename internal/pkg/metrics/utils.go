package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetRoutePath extracts the route pattern from the request context
// so metrics are grouped by route rather than by short code.
func GetRoutePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return NormalizePath(r.URL.Path)
}

// NormalizePath collapses dynamic segments to keep label cardinality bounded.
func NormalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	switch {
	case path == "/health", path == "/ready", path == "/metrics":
		return path
	case strings.HasPrefix(path, "/swagger"):
		return "/swagger/*"
	case strings.HasPrefix(path, "/api/v1/analytics"):
		return "/api/v1/analytics/*"
	case strings.HasPrefix(path, "/api/v1/urls"):
		if strings.Trim(strings.TrimPrefix(path, "/api/v1/urls"), "/") == "" {
			return "/api/v1/urls"
		}
		return "/api/v1/urls/{shortCode}"
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 1 && segments[0] != "" {
		return "/{shortCode}"
	}

	return path
}

// FormatStatusCode converts an integer status code to string
func FormatStatusCode(statusCode int) string {
	return strconv.Itoa(statusCode)
}
