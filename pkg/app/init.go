package app

import (
	"context"
	"errors"
	"log/slog"

	"go-pantheon/pkg/config"
	"go-pantheon/pkg/database"
	"go-pantheon/pkg/logging"

	"github.com/joho/godotenv"
)

// AppContext holds the shared application dependencies
type AppContext struct {
	MongoDB          *database.MongoDB
	Redis            *database.Redis
	TelemetryManager *logging.TelemetryManager
	ServiceName      string
	shutdownFuncs    []func(context.Context) error
}

// Options selects which stores InitializeApp connects to
type Options struct {
	NeedMongo bool
	NeedRedis bool
}

// OptionsFromEnv derives the required stores from SNAPSHOT_BACKEND and COOLDOWN_BACKEND
func OptionsFromEnv() Options {
	snapshotBackend := config.GetEnv("SNAPSHOT_BACKEND", "mongo")
	cooldownBackend := config.GetEnv("COOLDOWN_BACKEND", "memory")
	return Options{
		NeedMongo: snapshotBackend == "mongo",
		NeedRedis: snapshotBackend == "redis" || cooldownBackend == "redis" ||
			config.GetEnv("EVENTS_REDIS_CHANNEL", "") != "" ||
			config.GetEnv("NOTIFY_REDIS_CHANNEL", "") != "",
	}
}

// InitializeApp loads .env, sets up telemetry and connects the requested stores.
// Connection failures are returned so the host can refuse to start rather than
// silently losing persistence.
func InitializeApp(ctx context.Context, serviceName string, opts Options) (*AppContext, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	telemetryManager := logging.NewTelemetryManager()
	if err := telemetryManager.Initialize(ctx); err != nil {
		slog.Warn("Failed to initialize telemetry", "error", err)
	}

	appCtx := &AppContext{
		TelemetryManager: telemetryManager,
		ServiceName:      serviceName,
	}

	if opts.NeedMongo {
		mongodb, err := database.NewMongoDB(ctx, serviceName)
		if err != nil {
			_ = appCtx.Shutdown(ctx)
			return nil, err
		}
		appCtx.MongoDB = mongodb
		appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, mongodb.Close)
	}

	if opts.NeedRedis {
		redis, err := database.NewRedis(ctx)
		if err != nil {
			_ = appCtx.Shutdown(ctx)
			return nil, err
		}
		appCtx.Redis = redis
		appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, func(context.Context) error {
			return redis.Close()
		})
	}

	appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, telemetryManager.Shutdown)
	return appCtx, nil
}

// Shutdown closes dependencies in registration order
func (a *AppContext) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application", "service", a.ServiceName)

	var errs []error
	for _, shutdown := range a.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			slog.Error("Error during shutdown", "error", err)
			errs = append(errs, err)
		}
	}
	a.shutdownFuncs = nil
	return errors.Join(errs...)
}

// GetPort returns the port from environment or default
func GetPort(defaultPort string) string {
	return config.GetEnv("PORT", defaultPort)
}
