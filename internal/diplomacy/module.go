package diplomacy

import (
	"log/slog"

	"go-pantheon/internal/diplomacy/routes"
	"go-pantheon/internal/diplomacy/services"
	"go-pantheon/pkg/cooldown"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/module"
	"go-pantheon/pkg/snapshot"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the diplomacy engine. Expirations run from the world
// coordinator's maintenance schedule, so it has no background loop.
type Module struct {
	*module.BaseModule
	engine *services.Engine
	routes *routes.Module
}

func New(civilizations services.Civilizations, religions services.Religions, cooldowns cooldown.Tracker,
	store snapshot.Store, bus *events.Bus, auth *middleware.PlayerAuth, opts ...services.Option) *Module {
	engine := services.NewEngine(civilizations, religions, cooldowns, store, bus, opts...)
	return &Module{
		BaseModule: module.NewBaseModule("diplomacy"),
		engine:     engine,
		routes:     routes.NewModule(engine, auth),
	}
}

// Wire subscribes the engine to civilization disband events
func (m *Module) Wire(bus *events.Bus) {
	m.engine.Wire(bus)
}

func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("Diplomacy routes registered", "basePath", basePath)
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

func (m *Module) Stop() {
	m.engine.Close()
	m.BaseModule.Stop()
}

// Engine is read by the milestone engine and the world coordinator
func (m *Module) Engine() *services.Engine {
	return m.engine
}
