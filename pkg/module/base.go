package module

import (
	"context"
	"log/slog"
	"sync"

	"go-pantheon/pkg/handlers"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is implemented by every internal domain module
type Module interface {
	// Routes mounts plain chi routes such as health checks
	Routes(r chi.Router)

	// RegisterUnifiedRoutes registers the module's API operations
	RegisterUnifiedRoutes(api huma.API, basePath string)

	// StartBackgroundTasks runs until ctx is cancelled or Stop is called
	StartBackgroundTasks(ctx context.Context)

	// Stop releases subscriptions and background work. Safe to call twice.
	Stop()

	Name() string
}

// BaseModule provides name, stop channel and health route
type BaseModule struct {
	name     string
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewBaseModule(name string) *BaseModule {
	return &BaseModule{
		name:   name,
		stopCh: make(chan struct{}),
	}
}

func (b *BaseModule) Name() string {
	return b.name
}

// StopChannel is closed by Stop
func (b *BaseModule) StopChannel() <-chan struct{} {
	return b.stopCh
}

func (b *BaseModule) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		slog.Info("Module stopped", "module", b.name)
	})
}

// StartBackgroundTasks blocks until the module is stopped. Modules with
// periodic work override it.
func (b *BaseModule) StartBackgroundTasks(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-b.stopCh:
	}
}

// RegisterHealthRoute registers GET /health for this module
func (b *BaseModule) RegisterHealthRoute(r chi.Router) {
	r.Get("/health", handlers.HealthHandler(b.name))
}
