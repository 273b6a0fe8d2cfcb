package fx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/sp3dr4/shortlink/config"
	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/domain"
	cacheImpl "github.com/sp3dr4/shortlink/internal/infrastructure/cache"
	memoryRepo "github.com/sp3dr4/shortlink/internal/infrastructure/memory"
	postgresRepo "github.com/sp3dr4/shortlink/internal/infrastructure/postgres"
	redisImpl "github.com/sp3dr4/shortlink/internal/infrastructure/redis"
	sqliteRepo "github.com/sp3dr4/shortlink/internal/infrastructure/sqlite"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
	"github.com/sp3dr4/shortlink/migrations"
)

// ProvideLogger creates the process logger and installs it as the slog default.
func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(cfg.Logging.Level)
	slog.SetDefault(logger)
	return logger
}

// ProvideRepository creates the durable store selected by database.type and
// applies its migrations.
func ProvideRepository(cfg *config.Config, logger *slog.Logger) (domain.URLRepository, error) {
	switch cfg.Database.Type {
	case "memory":
		logger.Info("Using in-memory repository")
		return memoryRepo.NewURLRepository(), nil

	case "sqlite":
		dbURL := cfg.GetDatabaseURL()
		logger.Info("Using SQLite repository", "path", dbURL)

		dir := filepath.Dir(strings.SplitN(dbURL, "?", 2)[0])
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		db, err := sqlx.Connect("sqlite3", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}

		if err := migrations.Up(db.DB, migrations.DialectSQLite); err != nil {
			_ = db.Close()
			return nil, err
		}

		return sqliteRepo.NewURLRepository(db), nil

	case "postgres":
		driver := cfg.Database.Postgres.Driver
		if driver == "" {
			driver = "postgres"
		}
		logger.Info("Using PostgreSQL repository", "driver", driver)

		db, err := sqlx.Connect(driver, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		if err := migrations.Up(db.DB, migrations.DialectPostgres); err != nil {
			_ = db.Close()
			return nil, err
		}

		return postgresRepo.NewURLRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// ProvideRedisClient returns the shared Redis client, or nil when neither the
// cache nor the rate limiter needs one.
func ProvideRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.Cache.Enabled && !cfg.RateLimit.Enabled {
		return nil
	}
	logger.Info("Using Redis", "addr", cfg.Cache.Redis.Addr, "db", cfg.Cache.Redis.DB)
	return redisImpl.NewClient(cfg.Cache.Redis)
}

func ProvideKeyspace(cfg *config.Config) redisImpl.Keyspace {
	return redisImpl.NewKeyspace(cfg.Cache.Namespace)
}

// ProvideResolutionCache picks Redis, the in-process cache or a no-op cache.
func ProvideResolutionCache(cfg *config.Config, client *redis.Client, keys redisImpl.Keyspace, logger *slog.Logger, registry metrics.Registry) domain.ResolutionCache {
	switch {
	case cfg.Cache.Enabled && client != nil:
		return redisImpl.NewResolutionCache(client, keys, logger, registry)
	case cfg.Cache.InProcess:
		logger.Info("Using in-process resolution cache")
		return memoryRepo.NewResolutionCache(time.Now)
	default:
		logger.Info("Resolution cache disabled")
		return cacheImpl.NewNoOpCache()
	}
}

// ProvideClickCounter mirrors ProvideResolutionCache for the click buffer.
func ProvideClickCounter(cfg *config.Config, client *redis.Client, keys redisImpl.Keyspace, logger *slog.Logger, registry metrics.Registry) domain.ClickCounter {
	switch {
	case cfg.Cache.Enabled && client != nil:
		return redisImpl.NewClickCounter(client, keys, cfg.Cache.CounterTTL, logger, registry)
	case cfg.Cache.InProcess:
		return memoryRepo.NewClickCounter(cfg.Cache.CounterTTL, time.Now)
	default:
		return cacheImpl.NewNoOpCounter()
	}
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config, client *redis.Client, keys redisImpl.Keyspace, logger *slog.Logger) domain.RateLimiter {
	if !cfg.RateLimit.Enabled || client == nil {
		return nil
	}
	logger.Info("Rate limiting enabled", "per_minute", cfg.RateLimit.PerMinute)
	return redisImpl.NewFixedWindowLimiter(client, keys, cfg.RateLimit.PerMinute, logger)
}

// ProvideMetricsRegistry creates the metrics registry based on configuration
func ProvideMetricsRegistry(cfg *config.Config) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoOpRegistry(), nil
	}
	return metrics.NewPrometheusRegistry(cfg.Metrics)
}

func ProvideResolver(cfg *config.Config, repo domain.URLRepository, cache domain.ResolutionCache, counter domain.ClickCounter, registry metrics.Registry) *application.Resolver {
	return application.NewResolver(repo, cache, counter,
		application.WithResolutionTTL(cfg.Cache.ResolutionTTL),
		application.WithMetrics(registry),
	)
}

func ProvideURLService(cfg *config.Config, repo domain.URLRepository, resolver *application.Resolver, registry metrics.Registry) *application.URLService {
	return application.NewURLService(repo, resolver, registry, cfg.App.BaseURL, cfg.App.ShortCodeLength)
}

// RepositoryParams holds the parameters needed for repository lifecycle management
type RepositoryParams struct {
	fx.In

	Repository domain.URLRepository
	Logger     *slog.Logger
}

// RegisterRepositoryHooks registers repository lifecycle hooks with FX
func RegisterRepositoryHooks(lc fx.Lifecycle, params RepositoryParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := params.Repository.Close(); err != nil {
				params.Logger.Error("Failed to close repository resources", "error", err)
				return err
			}
			params.Logger.Info("Repository resources closed successfully")
			return nil
		},
	})
}

// RedisParams holds the parameters needed for Redis lifecycle management
type RedisParams struct {
	fx.In

	Client *redis.Client
	Logger *slog.Logger
}

// RegisterRedisHooks pings Redis on start and closes the shared client on stop.
// An unreachable Redis does not block startup; the caches degrade instead.
func RegisterRedisHooks(lc fx.Lifecycle, params RedisParams) {
	if params.Client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.Client.Ping(ctx).Err(); err != nil {
				params.Logger.Warn("Redis unreachable at startup, caches will degrade", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := params.Client.Close(); err != nil {
				params.Logger.Error("Failed to close Redis client", "error", err)
				return err
			}
			params.Logger.Info("Redis client closed")
			return nil
		},
	})
}

// JanitorParams holds the caches a janitor may sweep.
type JanitorParams struct {
	fx.In

	Config  *config.Config
	Cache   domain.ResolutionCache
	Counter domain.ClickCounter
	Logger  *slog.Logger
}

// RegisterCacheJanitor sweeps expired entries out of the in-process caches.
// Redis expires its own keys, so nothing is registered for it.
func RegisterCacheJanitor(lc fx.Lifecycle, params JanitorParams) *memoryRepo.Janitor {
	var sweepers []memoryRepo.Sweeper
	for _, c := range []any{params.Cache, params.Counter} {
		if s, ok := c.(memoryRepo.Sweeper); ok {
			sweepers = append(sweepers, s)
		}
	}
	if len(sweepers) == 0 {
		return nil
	}

	janitor := memoryRepo.NewJanitor(params.Config.Cache.SweepInterval, params.Logger, sweepers...)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			janitor.Start()
			params.Logger.Info("In-process cache janitor started", "interval", params.Config.Cache.SweepInterval)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			janitor.Stop()
			return nil
		},
	})
	return janitor
}
