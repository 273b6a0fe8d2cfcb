package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/shortlink/config"
	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/infrastructure/memory"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

const testSecret = "test-secret"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type denyingLimiter struct{}

func (denyingLimiter) Allow(_ context.Context, _ string, now time.Time) domain.RateLimitDecision {
	return domain.RateLimitDecision{Allowed: false, Limit: 1, Remaining: 0, ResetAt: now.Add(30 * time.Second)}
}

type unavailableRepo struct {
	*memory.URLRepository
}

func (unavailableRepo) FindByShortCode(context.Context, string) (*domain.URL, error) {
	return nil, domain.ErrStoreUnavailable
}

func (unavailableRepo) HealthCheck(context.Context) error {
	return domain.ErrStoreUnavailable
}

type testServer struct {
	clock   *fakeClock
	repo    domain.URLRepository
	counter *memory.ClickCounter
	e       *httpexpect.Expect
}

func newTestServer(t *testing.T, repo domain.URLRepository, limiter domain.RateLimiter) *testServer {
	t.Helper()

	clock := &fakeClock{now: time.Now().UTC()}
	counter := memory.NewClickCounter(5*time.Minute, clock.Now)
	resolver := application.NewResolver(repo, memory.NewResolutionCache(clock.Now), counter,
		application.WithClock(clock.Now))
	registry := metrics.NewNoOpRegistry()

	handlers := NewHandlers(
		application.NewURLService(repo, resolver, registry, "http://sho.rt", 6),
		application.NewAnalyticsService(repo, resolver),
		resolver,
		repo,
	)

	cfg := &config.Config{
		App:  config.AppConfig{BaseURL: "http://sho.rt"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(handlers, NewJWTAuthenticator(testSecret, ""), limiter, logger, cfg, registry)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	e := httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  server.URL,
		Reporter: httpexpect.NewAssertReporter(t),
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	})

	return &testServer{clock: clock, repo: repo, counter: counter, e: e}
}

func token(t *testing.T, ownerID int64) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(ownerID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (s *testServer) create(t *testing.T, ownerID int64, body map[string]any) *httpexpect.Object {
	return s.e.POST("/api/v1/urls").
		WithHeader("Authorization", token(t, ownerID)).
		WithJSON(body).
		Expect().
		Status(http.StatusCreated).
		JSON().Object()
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, memory.NewURLRepository(), nil)

	s.e.GET("/health").Expect().Status(http.StatusOK).Text().IsEqual("OK")
	s.e.GET("/ready").Expect().Status(http.StatusOK).
		JSON().Object().HasValue("status", "ready").HasValue("cache", "up")
}

func TestRedirectLifecycle(t *testing.T) {
	s := newTestServer(t, memory.NewURLRepository(), nil)

	s.e.GET("/nope42").Expect().Status(http.StatusNotFound)

	created := s.create(t, 1, map[string]any{"url": "https://example.org", "customShortCode": "abc123"})
	created.HasValue("shortCode", "abc123").
		HasValue("shortUrl", "http://sho.rt/abc123").
		HasValue("isActive", true).
		HasValue("clickCount", 0)

	for range 2 {
		s.e.GET("/abc123").Expect().
			Status(http.StatusTemporaryRedirect).
			Header("Location").IsEqual("https://example.org")
	}
	s.e.HEAD("/abc123").Expect().Status(http.StatusTemporaryRedirect)

	// Both GETs and the HEAD hit the cache warmed at creation time.
	s.e.GET("/api/v1/urls/abc123").
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("clickCount", 3)

	s.e.GET("/api/v1/analytics/abc123/clicks").
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusOK).
		JSON().Array().IsEmpty()

	s.e.PATCH("/api/v1/urls/abc123").
		WithHeader("Authorization", token(t, 1)).
		WithJSON(map[string]any{"isActive": false}).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("isActive", false).HasValue("clickCount", 0)

	s.e.GET("/abc123").Expect().Status(http.StatusGone).
		JSON().Object().Value("error").Object().HasValue("message", "Short URL is inactive")

	s.e.DELETE("/api/v1/urls/abc123").
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusNoContent)

	s.e.GET("/abc123").Expect().Status(http.StatusNotFound)
}

func TestRedirect_Expired(t *testing.T) {
	s := newTestServer(t, memory.NewURLRepository(), nil)

	expiresAt := s.clock.Now().Add(time.Hour)
	s.create(t, 1, map[string]any{
		"url":             "https://example.org",
		"customShortCode": "soon01",
		"expiresAt":       expiresAt.Format(time.RFC3339Nano),
	})

	s.e.GET("/soon01").Expect().Status(http.StatusTemporaryRedirect)

	s.clock.Advance(time.Hour)
	s.e.GET("/soon01").Expect().Status(http.StatusGone).
		JSON().Object().Value("error").Object().HasValue("message", "Short URL has expired")
}

func TestRedirect_StoreUnavailable(t *testing.T) {
	s := newTestServer(t, unavailableRepo{memory.NewURLRepository()}, nil)

	s.e.GET("/abc123").Expect().Status(http.StatusServiceUnavailable)
	s.e.GET("/ready").Expect().Status(http.StatusServiceUnavailable)
}

func TestCreateURL_Errors(t *testing.T) {
	s := newTestServer(t, memory.NewURLRepository(), nil)

	s.e.POST("/api/v1/urls").
		WithJSON(map[string]any{"url": "https://example.org"}).
		Expect().Status(http.StatusUnauthorized)

	s.e.POST("/api/v1/urls").
		WithHeader("Authorization", "Bearer not-a-jwt").
		WithJSON(map[string]any{"url": "https://example.org"}).
		Expect().Status(http.StatusUnauthorized)

	s.e.POST("/api/v1/urls").
		WithHeader("Authorization", token(t, 1)).
		WithText("{").
		Expect().Status(http.StatusBadRequest)

	details := s.e.POST("/api/v1/urls").
		WithHeader("Authorization", token(t, 1)).
		WithJSON(map[string]any{"url": "not-a-url", "customShortCode": "ab"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("error", "Validation failed").
		Value("details").Object()
	details.ContainsKey("url")
	details.ContainsKey("customShortCode")

	s.create(t, 1, map[string]any{"url": "https://example.org", "customShortCode": "taken1"})
	s.e.POST("/api/v1/urls").
		WithHeader("Authorization", token(t, 2)).
		WithJSON(map[string]any{"url": "https://other.example", "customShortCode": "taken1"}).
		Expect().Status(http.StatusConflict)

	s.e.POST("/api/v1/urls").
		WithHeader("Authorization", token(t, 1)).
		WithJSON(map[string]any{"url": "https://example.org", "expiresAt": s.clock.Now().Add(-time.Hour)}).
		Expect().Status(http.StatusBadRequest)
}

func TestOwnership(t *testing.T) {
	s := newTestServer(t, memory.NewURLRepository(), nil)
	s.create(t, 1, map[string]any{"url": "https://example.org", "customShortCode": "mine01"})

	s.e.GET("/api/v1/urls/mine01").
		WithHeader("Authorization", token(t, 2)).
		Expect().Status(http.StatusNotFound)

	s.e.PATCH("/api/v1/urls/mine01").
		WithHeader("Authorization", token(t, 2)).
		WithJSON(map[string]any{"isActive": false}).
		Expect().Status(http.StatusForbidden)

	s.e.DELETE("/api/v1/urls/mine01").
		WithHeader("Authorization", token(t, 2)).
		Expect().Status(http.StatusForbidden)

	s.e.GET("/api/v1/urls").
		WithHeader("Authorization", token(t, 2)).
		Expect().Status(http.StatusOK).
		JSON().Array().IsEmpty()

	s.e.GET("/api/v1/urls").
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusOK).
		JSON().Array().Length().IsEqual(1)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t, memory.NewURLRepository(), nil)
	s.create(t, 1, map[string]any{"url": "https://example.org", "customShortCode": "stat01"})

	require.NoError(t, s.repo.AppendClickEvent(context.Background(), "stat01",
		domain.ClickMetadata{SourceIP: "10.0.0.1"}, s.clock.Now()))
	s.e.GET("/stat01").Expect().Status(http.StatusTemporaryRedirect)

	s.e.GET("/api/v1/analytics/stat01/summary").
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusOK).
		JSON().Object().
		HasValue("days", 30).
		HasValue("totalClicks", 2).
		HasValue("uniqueIps", 1)

	s.e.GET("/api/v1/analytics/stat01/summary").
		WithQuery("days", 0).
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("details").Object().ContainsKey("days")

	s.e.GET("/api/v1/analytics/stat01/summary").
		WithQuery("days", "abc").
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusBadRequest)

	top := s.e.GET("/api/v1/analytics/top").
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusOK).
		JSON().Array()
	top.Length().IsEqual(1)
	top.Value(0).Object().HasValue("shortCode", "stat01").HasValue("totalClicks", 2)

	s.e.GET("/api/v1/analytics/top").
		WithQuery("limit", 51).
		WithHeader("Authorization", token(t, 1)).
		Expect().Status(http.StatusBadRequest)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, memory.NewURLRepository(), denyingLimiter{})

	resp := s.e.GET("/abc123").Expect().Status(http.StatusTooManyRequests)
	resp.Header("X-RateLimit-Limit").IsEqual("1")
	resp.Header("X-RateLimit-Remaining").IsEqual("0")
	resp.Header("Retry-After").NotEmpty()

	s.e.GET("/health").Expect().Status(http.StatusOK)
}

func TestJWTAuthenticator(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, "shortlink-auth")

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "42",
		Issuer:  "shortlink-auth",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	ownerID, err := auth.Authenticate(signed)
	require.NoError(t, err)
	require.Equal(t, int64(42), ownerID)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "42",
		Issuer:  "someone-else",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.Authenticate(wrongIssuer)
	require.Error(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
		Issuer:  "shortlink-auth",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.Authenticate(badSubject)
	require.Error(t, err)

	_, err = NewJWTAuthenticator("", "").Authenticate(signed)
	require.True(t, errors.Is(err, errAuthNotConfigured))
}
