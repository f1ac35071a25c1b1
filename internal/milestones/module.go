package milestones

import (
	"fmt"
	"log/slog"

	"go-pantheon/internal/milestones/routes"
	"go-pantheon/internal/milestones/services"
	"go-pantheon/pkg/config"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the milestone engine. Triggers are evaluated from bus events,
// never on a timer.
type Module struct {
	*module.BaseModule
	engine *services.Engine
	routes *routes.Module
}

// New loads the catalog from MILESTONES_FILE, falling back to the embedded one
func New(civilizations services.Civilizations, religions services.Religions, bus *events.Bus, auth *middleware.PlayerAuth, opts ...services.Option) (*Module, error) {
	path := config.GetEnv("MILESTONES_FILE", "")
	catalog, err := services.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestone catalog: %w", err)
	}
	slog.Info("Milestone catalog loaded", "milestones", len(catalog), "file", path)

	engine := services.NewEngine(catalog, civilizations, religions, bus, opts...)
	return &Module{
		BaseModule: module.NewBaseModule("milestones"),
		engine:     engine,
		routes:     routes.NewModule(engine, auth),
	}, nil
}

// Wire subscribes the engine to trigger events. The registry must be wired
// first so member counts are current when triggers are read.
func (m *Module) Wire(bus *events.Bus) {
	m.engine.Wire(bus)
}

// SetDiplomacy attaches the treaty reader used by diplomatic triggers
func (m *Module) SetDiplomacy(d services.Diplomacy) {
	m.engine.SetDiplomacy(d)
}

func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("Milestone routes registered", "basePath", basePath)
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

func (m *Module) Stop() {
	m.engine.Close()
	m.BaseModule.Stop()
}

func (m *Module) Engine() *services.Engine {
	return m.engine
}
