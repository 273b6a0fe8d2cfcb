package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	redisContainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sp3dr4/shortlink/internal/application"
	postgresRepo "github.com/sp3dr4/shortlink/internal/infrastructure/postgres"
	redisImpl "github.com/sp3dr4/shortlink/internal/infrastructure/redis"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
	"github.com/sp3dr4/shortlink/migrations"
)

const testBaseURL = "http://localhost:8080"

var (
	sharedPostgres *postgresContainer.PostgresContainer
	sharedRedis    *redisContainer.RedisContainer
	sharedDB       *sqlx.DB
	sharedClient   *redis.Client
	setupErr       error
	containerOnce  sync.Once
	cleanupOnce    sync.Once
)

// TestEnvironment wires the production stack against real PostgreSQL and Redis.
type TestEnvironment struct {
	DB        *sqlx.DB
	Redis     *redis.Client
	Keys      redisImpl.Keyspace
	Repo      *postgresRepo.URLRepository
	Resolver  *application.Resolver
	Service   *application.URLService
	Analytics *application.AnalyticsService
}

// SetupTestEnvironment starts the shared containers once, resets their state
// and returns freshly wired services.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	containerOnce.Do(func() { setupErr = startContainers(context.Background()) })
	if setupErr != nil {
		t.Fatalf("failed to set up containers: %v", setupErr)
	}

	ctx := context.Background()
	if _, err := sharedDB.ExecContext(ctx, "TRUNCATE TABLE urls RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	if err := sharedClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := metrics.NewNoOpRegistry()
	keys := redisImpl.NewKeyspace("it")

	repo := postgresRepo.NewURLRepository(sharedDB)
	cache := redisImpl.NewResolutionCache(sharedClient, keys, logger, registry)
	counter := redisImpl.NewClickCounter(sharedClient, keys, 5*time.Minute, logger, registry)
	resolver := application.NewResolver(repo, cache, counter, application.WithMetrics(registry))

	return &TestEnvironment{
		DB:        sharedDB,
		Redis:     sharedClient,
		Keys:      keys,
		Repo:      repo,
		Resolver:  resolver,
		Service:   application.NewURLService(repo, resolver, registry, testBaseURL, 6),
		Analytics: application.NewAnalyticsService(repo, resolver),
	}
}

func startContainers(ctx context.Context) error {
	pg, err := postgresContainer.Run(ctx,
		"postgres:16-alpine",
		postgresContainer.WithDatabase("shortlink_test"),
		postgresContainer.WithUsername("test"),
		postgresContainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return fmt.Errorf("start postgres: %w", err)
	}
	sharedPostgres = pg

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("postgres connection string: %w", err)
	}

	db, err := sqlx.Connect("pgx", connStr)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	sharedDB = db

	if err := migrations.Up(db.DB, migrations.DialectPostgres); err != nil {
		return err
	}

	rc, err := redisContainer.Run(ctx, "redis:7-alpine")
	if err != nil {
		return fmt.Errorf("start redis: %w", err)
	}
	sharedRedis = rc

	uri, err := rc.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("redis connection string: %w", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	sharedClient = redis.NewClient(opts)

	return nil
}

// CleanupSharedResources should be called once at the end of all tests
func CleanupSharedResources() {
	cleanupOnce.Do(func() {
		ctx := context.Background()
		if sharedClient != nil {
			_ = sharedClient.Close()
		}
		if sharedDB != nil {
			_ = sharedDB.Close()
		}
		if sharedRedis != nil {
			_ = sharedRedis.Terminate(ctx)
		}
		if sharedPostgres != nil {
			_ = sharedPostgres.Terminate(ctx)
		}
	})
}

// TestMain handles setup and teardown for the entire test suite
func TestMain(m *testing.M) {
	code := m.Run()

	CleanupSharedResources()

	os.Exit(code)
}
