package routes

import (
	"context"
	"net/http"

	"go-pantheon/internal/world/dto"
	"go-pantheon/internal/world/services"
	"go-pantheon/pkg/handlers"
	"go-pantheon/pkg/middleware"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
)

// Module holds the world coordinator HTTP handlers
type Module struct {
	coordinator *services.Coordinator
	auth        *middleware.PlayerAuth
	validate    *validator.Validate
}

func NewModule(coordinator *services.Coordinator, auth *middleware.PlayerAuth) *Module {
	return &Module{
		coordinator: coordinator,
		auth:        auth,
		validate:    dto.NewValidator(),
	}
}

// RegisterUnifiedRoutes registers the world operations under basePath
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "world-report-kill",
		Method:      http.MethodPost,
		Path:        basePath + "/kills",
		Summary:     "Score a PvP kill",
		Description: "Returns the favor multiplier for the kill. Kills at war count toward war milestones; kills inside a pact are treaty violations.",
		Tags:        []string{"World"},
	}, m.reportKill)

	huma.Register(api, huma.Operation{
		OperationID: "world-save",
		Method:      http.MethodPost,
		Path:        basePath + "/save",
		Summary:     "Run a world-save checkpoint",
		Tags:        []string{"World"},
	}, m.save)

	huma.Register(api, huma.Operation{
		OperationID: "world-maintenance",
		Method:      http.MethodPost,
		Path:        basePath + "/maintenance",
		Summary:     "Purge expired invites, proposals and pacts",
		Tags:        []string{"World"},
	}, m.maintenance)
}

func (m *Module) reportKill(ctx context.Context, input *dto.KillInput) (*dto.KillOutput, error) {
	if _, err := m.auth.Authenticate(input.Authorization, input.Cookie); err != nil {
		return nil, err
	}
	if err := m.validate.Struct(input.Body); err != nil {
		messages := handlers.ValidationMessages(err)
		return nil, huma.Error422UnprocessableEntity(messages[0])
	}

	report, err := m.coordinator.ReportKill(ctx, input.Body.KillerID, input.Body.VictimID)
	if err != nil {
		return nil, handlers.ServiceError("Failed to score kill", err)
	}
	return &dto.KillOutput{Body: report}, nil
}

func (m *Module) save(ctx context.Context, input *dto.CheckpointInput) (*dto.SaveOutput, error) {
	if _, err := m.auth.Authenticate(input.Authorization, input.Cookie); err != nil {
		return nil, err
	}
	if err := m.coordinator.SaveAll(ctx); err != nil {
		return nil, handlers.ServiceError("Failed to save world", err)
	}
	out := &dto.SaveOutput{}
	out.Body.Message = "World saved"
	return out, nil
}

func (m *Module) maintenance(ctx context.Context, input *dto.CheckpointInput) (*dto.MaintenanceOutput, error) {
	if _, err := m.auth.Authenticate(input.Authorization, input.Cookie); err != nil {
		return nil, err
	}
	return &dto.MaintenanceOutput{Body: m.coordinator.RunMaintenance(ctx)}, nil
}
