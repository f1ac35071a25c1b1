package religions

import (
	"log/slog"

	"go-pantheon/internal/religions/routes"
	"go-pantheon/internal/religions/services"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/module"
	"go-pantheon/pkg/snapshot"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// Module is the religion directory and prestige ledger
type Module struct {
	*module.BaseModule
	directory *services.Directory
	routes    *routes.Module
}

func New(store snapshot.Store, bus *events.Bus, auth *middleware.PlayerAuth, opts ...services.Option) *Module {
	directory := services.NewDirectory(store, bus, opts...)
	return &Module{
		BaseModule: module.NewBaseModule("religions"),
		directory:  directory,
		routes:     routes.NewModule(directory, auth),
	}
}

// RegisterUnifiedRoutes registers the religion routes with the huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	m.routes.RegisterUnifiedRoutes(api, basePath)
	slog.Info("Religion routes registered", "basePath", basePath)
}

func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// Directory is shared with the civilization, diplomacy and milestone modules
func (m *Module) Directory() *services.Directory {
	return m.directory
}
