package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go-pantheon/internal/civilization"
	civServices "go-pantheon/internal/civilization/services"
	"go-pantheon/internal/diplomacy"
	diplomacyServices "go-pantheon/internal/diplomacy/services"
	"go-pantheon/internal/milestones"
	"go-pantheon/internal/religions"
	"go-pantheon/internal/world"
	worldServices "go-pantheon/internal/world/services"
	"go-pantheon/pkg/app"
	"go-pantheon/pkg/config"
	"go-pantheon/pkg/cooldown"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/handlers"
	pantheonMiddleware "go-pantheon/pkg/middleware"
	"go-pantheon/pkg/module"
	"go-pantheon/pkg/notify"
	"go-pantheon/pkg/snapshot"
	"go-pantheon/pkg/version"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "go.uber.org/automaxprocs"
)

const serviceName = "pantheon"

// customLoggerMiddleware logs requests but excludes health check endpoints
func customLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}
		middleware.Logger(next).ServeHTTP(w, r)
	})
}

func main() {
	versionInfo := version.Get()
	log.Printf("Pantheon %s | Build: %s", version.String(), versionInfo.BuildDate)
	log.Printf("CPUs: %d | GOMAXPROCS: %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	ctx := context.Background()

	appCtx, err := app.InitializeApp(ctx, serviceName, app.OptionsFromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	store, err := newSnapshotStore(appCtx)
	if err != nil {
		log.Fatalf("Failed to create snapshot store: %v", err)
	}
	cooldowns := newCooldownTracker(appCtx)
	notifier := newNotifier(appCtx)

	bus := events.NewBus()
	if channel := config.GetEnv("EVENTS_REDIS_CHANNEL", ""); channel != "" && appCtx.Redis != nil {
		bridge := events.NewRedisBridge(appCtx.Redis.Client, channel)
		bridge.Attach(bus)
		defer bridge.Detach()
	}

	auth := pantheonMiddleware.NewPlayerAuth(string(config.GetJWTSecret()))

	// The registry subscribes before milestones so member counts are current
	// when triggers are evaluated
	religionsModule := religions.New(store, bus, auth)
	directory := religionsModule.Directory()

	civilizationModule := civilization.New(directory, store, bus, auth, civServices.WithNotifier(notifier))
	civilizationModule.Wire(bus)
	registry := civilizationModule.Registry()

	milestonesModule, err := milestones.New(registry, directory, bus, auth)
	if err != nil {
		log.Fatalf("Failed to initialize milestones: %v", err)
	}
	milestonesModule.Wire(bus)

	diplomacyModule := diplomacy.New(registry, directory, cooldowns, store, bus, auth,
		diplomacyServices.WithNotifier(notifier),
		diplomacyServices.WithConfig(diplomacyServices.ConfigFromEnv()))
	diplomacyModule.Wire(bus)
	milestonesModule.SetDiplomacy(diplomacyModule.Engine())

	worldModule := world.New(directory, registry, diplomacyModule.Engine(), milestonesModule.Engine(),
		worldServices.ConfigFromEnv(), auth)
	coordinator := worldModule.Coordinator()

	// Lost slots start empty; keep serving what did load
	if err := coordinator.LoadAll(ctx); err != nil {
		slog.ErrorContext(ctx, "World loaded with failures", "error", err)
	}

	modules := []module.Module{religionsModule, civilizationModule, diplomacyModule, milestonesModule, worldModule}

	r := chi.NewRouter()
	r.Use(customLoggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(handlers.TracingMiddleware(serviceName))

	r.Get("/health", handlers.ServiceHealthHandler(healthChecks(appCtx)))

	apiPrefix := config.GetAPIPrefix()
	humaConfig := huma.DefaultConfig("Pantheon API Server", version.Version)
	humaConfig.Info.Description = "Civilizations, diplomacy and milestones for religion-based multiplayer servers"

	var api huma.API
	if apiPrefix == "" {
		api = humachi.New(r, humaConfig)
	} else {
		r.Route(apiPrefix, func(prefixRouter chi.Router) {
			api = humachi.New(prefixRouter, humaConfig)
		})
	}

	religionsModule.RegisterUnifiedRoutes(api, "/religions")
	civilizationModule.RegisterUnifiedRoutes(api, "/civilizations")
	diplomacyModule.RegisterUnifiedRoutes(api, "/diplomacy")
	milestonesModule.RegisterUnifiedRoutes(api, "/milestones")
	worldModule.RegisterUnifiedRoutes(api, "/world")

	for _, mod := range modules {
		r.Route("/modules/"+mod.Name(), mod.Routes)
	}

	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()
	for _, mod := range modules {
		go mod.StartBackgroundTasks(bgCtx)
	}

	port := app.GetPort("8080")
	host := config.GetHost()
	srv := &http.Server{
		Addr:         host + ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server: http://%s%s | OpenAPI: %s/openapi.json", srv.Addr, apiPrefix, apiPrefix)

	go func() {
		slog.Info("Starting pantheon server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Received shutdown signal, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	for _, mod := range modules {
		mod.Stop()
	}

	if err := coordinator.SaveAll(shutdownCtx); err != nil {
		slog.Error("Final world save failed", "error", err)
	}

	if err := appCtx.Shutdown(shutdownCtx); err != nil {
		slog.Error("Application shutdown reported errors", "error", err)
	}

	slog.Info("Pantheon shutdown completed successfully")
}

func newSnapshotStore(appCtx *app.AppContext) (snapshot.Store, error) {
	backend := config.GetEnv("SNAPSHOT_BACKEND", snapshot.BackendMongo)
	switch backend {
	case snapshot.BackendMongo:
		return snapshot.NewMongoStore(appCtx.MongoDB), nil
	case snapshot.BackendRedis:
		return snapshot.NewRedisStore(appCtx.Redis), nil
	case snapshot.BackendMemory:
		slog.Warn("Using in-memory snapshot store; world state will not survive restarts")
		return snapshot.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown SNAPSHOT_BACKEND %q", backend)
	}
}

func newCooldownTracker(appCtx *app.AppContext) cooldown.Tracker {
	if config.GetEnv("COOLDOWN_BACKEND", "memory") == "redis" && appCtx.Redis != nil {
		return cooldown.NewRedisTracker(appCtx.Redis, nil)
	}
	return cooldown.NewMemoryTracker(nil, time.Now)
}

func newNotifier(appCtx *app.AppContext) notify.Notifier {
	channel := config.GetEnv("NOTIFY_REDIS_CHANNEL", "")
	if channel == "" || appCtx.Redis == nil {
		return notify.Discard{}
	}
	return notify.NewRedisNotifier(appCtx.Redis.Client, channel)
}

func healthChecks(appCtx *app.AppContext) map[string]handlers.Checker {
	checks := make(map[string]handlers.Checker)
	if appCtx.MongoDB != nil {
		checks["mongodb"] = appCtx.MongoDB
	}
	if appCtx.Redis != nil {
		checks["redis"] = appCtx.Redis
	}
	return checks
}
