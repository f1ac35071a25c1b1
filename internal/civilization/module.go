package civilization

import (
	"context"
	"log/slog"
	"time"

	"go-pantheon/internal/civilization/routes"
	"go-pantheon/internal/civilization/services"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/module"
	"go-pantheon/pkg/snapshot"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// inviteSweepInterval is how often expired invites are purged
const inviteSweepInterval = time.Hour

// Module is the civilization registry
type Module struct {
	*module.BaseModule
	registry *services.Registry
	routes   *routes.Module
}

func New(religions routes.Religions, store snapshot.Store, bus *events.Bus, auth *middleware.PlayerAuth, opts ...services.Option) *Module {
	registry := services.NewRegistry(religions, store, bus, opts...)
	return &Module{
		BaseModule: module.NewBaseModule("civilizations"),
		registry:   registry,
		routes:     routes.NewModule(registry, religions, auth),
	}
}

// Wire subscribes the registry to religion events
func (m *Module) Wire(bus *events.Bus) {
	m.registry.Wire(bus)
}

// RegisterUnifiedRoutes registers the civilization routes with the huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("Civilization routes registered", "basePath", basePath)
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// StartBackgroundTasks sweeps expired invites until the module is stopped
func (m *Module) StartBackgroundTasks(ctx context.Context) {
	slog.Info("Starting civilization background tasks")
	ticker := time.NewTicker(inviteSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.StopChannel():
			return
		case <-ticker.C:
			m.registry.CleanupExpiredInvites(ctx)
		}
	}
}

// Stop stops background tasks and removes bus subscriptions
func (m *Module) Stop() {
	m.registry.Close()
	m.BaseModule.Stop()
}

// Registry is shared with diplomacy, milestones and the world coordinator
func (m *Module) Registry() *services.Registry {
	return m.registry
}
