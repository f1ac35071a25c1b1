package routes

import (
	"context"
	"net/http"

	"go-pantheon/internal/milestones/dto"
	"go-pantheon/internal/milestones/models"
	"go-pantheon/internal/milestones/services"
	"go-pantheon/pkg/handlers"
	"go-pantheon/pkg/middleware"

	"github.com/danielgtaylor/huma/v2"
)

// Module holds the milestone HTTP handlers
type Module struct {
	engine *services.Engine
	auth   *middleware.PlayerAuth
}

func NewModule(engine *services.Engine, auth *middleware.PlayerAuth) *Module {
	return &Module{engine: engine, auth: auth}
}

// RegisterUnifiedRoutes registers the milestone operations under basePath
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "milestones-catalog",
		Method:      http.MethodGet,
		Path:        basePath,
		Summary:     "List milestone definitions",
		Tags:        []string{"Milestones"},
	}, m.catalog)

	huma.Register(api, huma.Operation{
		OperationID: "milestones-progress",
		Method:      http.MethodGet,
		Path:        basePath + "/civilizations/{civilization_id}/progress",
		Summary:     "Get milestone progress of a civilization",
		Tags:        []string{"Milestones"},
	}, m.progress)

	huma.Register(api, huma.Operation{
		OperationID: "milestones-bonuses",
		Method:      http.MethodGet,
		Path:        basePath + "/civilizations/{civilization_id}/bonuses",
		Summary:     "Get active milestone bonuses of a civilization",
		Description: "Multipliers are relative to a 1.0 baseline.",
		Tags:        []string{"Milestones"},
	}, m.bonuses)

	huma.Register(api, huma.Operation{
		OperationID: "milestones-check",
		Method:      http.MethodPost,
		Path:        basePath + "/civilizations/{civilization_id}/check",
		Summary:     "Re-evaluate milestone triggers",
		Description: "Unlocks every milestone whose trigger is already met. Completed milestones are never revoked.",
		Tags:        []string{"Milestones"},
	}, m.check)
}

func (m *Module) catalog(ctx context.Context, input *dto.CatalogInput) (*dto.CatalogOutput, error) {
	out := &dto.CatalogOutput{}
	out.Body.Milestones = []models.Definition{}
	for _, def := range m.engine.Catalog() {
		if input.Type == "" || string(def.Type) == input.Type {
			out.Body.Milestones = append(out.Body.Milestones, def)
		}
	}
	out.Body.Total = len(out.Body.Milestones)
	return out, nil
}

func (m *Module) progress(ctx context.Context, input *dto.CivilizationInput) (*dto.ProgressOutput, error) {
	entries, ok := m.engine.Progress(ctx, input.CivilizationID)
	if !ok {
		return nil, huma.Error404NotFound("Civilization not found")
	}
	out := &dto.ProgressOutput{}
	out.Body.CivilizationID = input.CivilizationID
	out.Body.Milestones = entries
	for _, entry := range entries {
		if entry.Completed {
			out.Body.Completed++
		}
	}
	return out, nil
}

func (m *Module) bonuses(ctx context.Context, input *dto.CivilizationInput) (*dto.BonusesOutput, error) {
	snap, ok := m.engine.GetActiveBonuses(ctx, input.CivilizationID)
	if !ok {
		return nil, huma.Error404NotFound("Civilization not found")
	}
	out := &dto.BonusesOutput{}
	out.Body.CivilizationID = input.CivilizationID
	out.Body.BonusSnapshot = snap
	return out, nil
}

func (m *Module) check(ctx context.Context, input *dto.CheckInput) (*dto.CheckOutput, error) {
	if _, err := m.auth.Authenticate(input.Authorization, input.Cookie); err != nil {
		return nil, err
	}
	if _, ok := m.engine.Progress(ctx, input.CivilizationID); !ok {
		return nil, huma.Error404NotFound("Civilization not found")
	}

	unlocked, err := m.engine.CheckMilestones(ctx, input.CivilizationID)
	if err != nil {
		return nil, handlers.ServiceError("Failed to check milestones", err)
	}
	out := &dto.CheckOutput{}
	out.Body.CivilizationID = input.CivilizationID
	out.Body.Unlocked = append([]string{}, unlocked...)
	return out, nil
}
