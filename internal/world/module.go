package world

import (
	"context"
	"log/slog"

	"go-pantheon/internal/world/routes"
	"go-pantheon/internal/world/services"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/module"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module owns the world-load and world-save checkpoints and the cron
// schedules for maintenance and saves
type Module struct {
	*module.BaseModule
	coordinator *services.Coordinator
	routes      *routes.Module
}

func New(religions services.Religions, civilizations services.Civilizations, diplomacy services.Diplomacy,
	milestones services.Milestones, cfg services.Config, auth *middleware.PlayerAuth) *Module {
	coordinator := services.NewCoordinator(religions, civilizations, diplomacy, milestones, cfg)
	return &Module{
		BaseModule:  module.NewBaseModule("world"),
		coordinator: coordinator,
		routes:      routes.NewModule(coordinator, auth),
	}
}

func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("World routes registered", "basePath", basePath)
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// StartBackgroundTasks runs the cron schedules until the module is stopped
func (m *Module) StartBackgroundTasks(ctx context.Context) {
	if err := m.coordinator.Start(ctx); err != nil {
		slog.Error("Failed to start world coordinator", "error", err)
		return
	}
	select {
	case <-ctx.Done():
	case <-m.StopChannel():
	}
	m.coordinator.Stop()
}

func (m *Module) Coordinator() *services.Coordinator {
	return m.coordinator
}
