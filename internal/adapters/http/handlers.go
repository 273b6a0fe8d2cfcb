package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
)

type Handlers struct {
	urls      *application.URLService
	analytics *application.AnalyticsService
	resolver  *application.Resolver
	repo      domain.URLRepository
}

func NewHandlers(urls *application.URLService, analytics *application.AnalyticsService, resolver *application.Resolver, repo domain.URLRepository) *Handlers {
	return &Handlers{
		urls:      urls,
		analytics: analytics,
		resolver:  resolver,
		repo:      repo,
	}
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Check if the service is running
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// ReadyResponse reports store and cache reachability.
type ReadyResponse struct {
	Status    string `json:"status" example:"ready"`
	Cache     string `json:"cache" example:"up"`
	Timestamp string `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

// HandleReady handles the readiness check endpoint.
//
//	@Summary		Readiness check endpoint
//	@Description	Ready when the durable store answers; cache reachability is reported but never fails the check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	ReadyResponse	"Service is ready"
//	@Failure		503	{object}	ErrorResponse	"Service is not ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.HealthCheck(ctx); err != nil {
		logging.FromContext(ctx).Error("Readiness check failed", "error", err)
		respondWithError(w, r, http.StatusServiceUnavailable, "Service not ready: database unavailable")
		return
	}

	cacheStatus := "up"
	if err := h.resolver.CacheHealth(ctx); err != nil {
		logging.FromContext(ctx).Warn("Cache unreachable, serving from store", "error", err)
		cacheStatus = "down"
	}

	respondWithJSON(w, r, http.StatusOK, ReadyResponse{
		Status:    "ready",
		Cache:     cacheStatus,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HandleRedirect handles the redirect endpoint.
//
//	@Summary		Redirect to original URL
//	@Description	Resolve the short code and redirect with 307 Temporary Redirect
//	@Tags			redirect
//	@Param			shortCode	path	string	true	"Short code"
//	@Success		307			"Redirect to original URL"
//	@Failure		404			{object}	ErrorResponse	"Short URL not found"
//	@Failure		410			{object}	ErrorResponse	"Short URL inactive or expired"
//	@Failure		429			{object}	ErrorResponse	"Rate limit exceeded"
//	@Failure		503			{object}	ErrorResponse	"Store unavailable"
//	@Router			/{shortCode} [get]
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")
	ctx := r.Context()

	meta := domain.ClickMetadata{
		SourceIP:  clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}

	outcome, err := h.resolver.Resolve(ctx, shortCode, meta)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to resolve short code", "short_code", shortCode, "error", err)
		respondWithError(w, r, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}

	switch outcome.Kind {
	case domain.OutcomeRedirect:
		logging.FromContext(ctx).Info("Redirecting",
			"short_code", shortCode,
			"cache_hit", outcome.CacheHit,
		)
		w.Header().Set("Cache-Control", "private, no-cache")
		http.Redirect(w, r, outcome.Destination, outcome.Status)
	case domain.OutcomeInactive:
		respondWithError(w, r, http.StatusGone, "Short URL is inactive")
	case domain.OutcomeExpired:
		respondWithError(w, r, http.StatusGone, "Short URL has expired")
	default:
		respondWithError(w, r, http.StatusNotFound, "Short URL not found")
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     map[string]string `json:"error"`
	Timestamp string            `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

// ValidationErrorResponse represents a validation error response.
type ValidationErrorResponse struct {
	Details map[string]string `json:"details"`
	Error   string            `json:"error" example:"Validation failed"`
}

func respondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	render.Status(r, code)
	render.JSON(w, r, payload)
}

func respondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	respondWithJSON(w, r, code, ErrorResponse{
		Error:     map[string]string{"message": message},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// respondWithServiceError maps application errors onto HTTP statuses.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		handleValidationError(w, r, validationErrors)
	case errors.Is(err, domain.ErrShortCodeExists):
		respondWithError(w, r, http.StatusConflict, "Short code already exists")
	case errors.Is(err, domain.ErrURLNotFound):
		respondWithError(w, r, http.StatusNotFound, "Short URL not found")
	case errors.Is(err, domain.ErrForbidden):
		respondWithError(w, r, http.StatusForbidden, "Short URL belongs to another user")
	case errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrInvalidShortCode),
		errors.Is(err, domain.ErrInvalidExpiry):
		respondWithError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		logging.FromContext(r.Context()).Error("Store unavailable", "action", action, "error", err)
		respondWithError(w, r, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		logging.FromContext(r.Context()).Error("Request failed", "action", action, "error", err)
		respondWithError(w, r, http.StatusInternalServerError, "Failed to "+action)
	}
}

func handleValidationError(w http.ResponseWriter, r *http.Request, validationErrors validator.ValidationErrors) {
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		field := getJSONFieldName(e)
		switch e.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s is required", field)
		case "url":
			errorMessages[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "alphanum":
			errorMessages[field] = fmt.Sprintf("%s must contain only alphanumeric characters", field)
		case "min":
			if e.Kind() == reflect.String {
				errorMessages[field] = fmt.Sprintf("%s must be at least %s characters long", field, e.Param())
			} else {
				errorMessages[field] = fmt.Sprintf("%s must be at least %s", field, e.Param())
			}
		case "max":
			if e.Kind() == reflect.String {
				errorMessages[field] = fmt.Sprintf("%s must be at most %s characters long", field, e.Param())
			} else {
				errorMessages[field] = fmt.Sprintf("%s must be at most %s", field, e.Param())
			}
		default:
			errorMessages[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	respondWithJSON(w, r, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "Validation failed",
		Details: errorMessages,
	})
}

// getJSONFieldName extracts the JSON tag name from a validation error
func getJSONFieldName(e validator.FieldError) string {
	structType := getStructTypeFromError(e)
	if structType == nil {
		return e.Field()
	}

	field, found := structType.FieldByName(e.StructField())
	if !found {
		return e.Field()
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return e.Field()
	}

	if commaIndex := strings.Index(jsonTag, ","); commaIndex != -1 {
		jsonTag = jsonTag[:commaIndex]
	}

	return jsonTag
}

// getStructTypeFromError extracts the struct type from a validation error.
// StructNamespace looks like "CreateURLRequest.URL".
func getStructTypeFromError(e validator.FieldError) reflect.Type {
	parts := strings.Split(e.StructNamespace(), ".")
	if len(parts) < 2 {
		return nil
	}

	return getTypeFromStructName(parts[0])
}

// getTypeFromStructName is the registry of request types rendered by handleValidationError.
func getTypeFromStructName(structName string) reflect.Type {
	switch structName {
	case "CreateURLRequest":
		return reflect.TypeOf(application.CreateURLRequest{})
	case "UpdateURLRequest":
		return reflect.TypeOf(application.UpdateURLRequest{})
	case "ListURLsQuery":
		return reflect.TypeOf(application.ListURLsQuery{})
	case "ClickEventsQuery":
		return reflect.TypeOf(application.ClickEventsQuery{})
	case "SummaryQuery":
		return reflect.TypeOf(application.SummaryQuery{})
	case "TopQuery":
		return reflect.TypeOf(application.TopQuery{})
	default:
		return nil
	}
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// clientIP returns the caller address without its port. middleware.RealIP
// has already replaced RemoteAddr with the forwarded address when present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
