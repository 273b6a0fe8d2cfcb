package fx

import (
	"go.uber.org/fx"

	"github.com/sp3dr4/shortlink/config"
	"github.com/sp3dr4/shortlink/internal/application"
)

// ConfigModule provides configuration-related dependencies
var ConfigModule = fx.Module("config",
	fx.Provide(config.Load),
)

// InfrastructureModule provides the durable store, the cache transport and
// the caches built on it.
var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideRepository),
	fx.Provide(ProvideRedisClient),
	fx.Provide(ProvideKeyspace),
	fx.Provide(ProvideResolutionCache),
	fx.Provide(ProvideClickCounter),
	fx.Provide(ProvideRateLimiter),
)

// ApplicationModule provides application service dependencies
var ApplicationModule = fx.Module("application",
	fx.Provide(ProvideResolver),
	fx.Provide(ProvideURLService),
	fx.Provide(application.NewAnalyticsService),
)

// MetricsModule provides metrics-related dependencies
var MetricsModule = fx.Module("metrics",
	fx.Provide(ProvideMetricsRegistry),
)

// CoreLifecycleModule provides core lifecycle management (shared by all entrypoints)
var CoreLifecycleModule = fx.Module("core-lifecycle",
	fx.Invoke(RegisterRepositoryHooks),
	fx.Invoke(RegisterRedisHooks),
	fx.Invoke(RegisterCacheJanitor),
)

// CoreModules combines the core modules shared by all entrypoints
var CoreModules = fx.Options(
	ConfigModule,
	InfrastructureModule,
	ApplicationModule,
	MetricsModule,
	CoreLifecycleModule,
)
