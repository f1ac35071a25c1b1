package routes

import (
	"context"
	"net/http"

	"go-pantheon/internal/religions/dto"
	"go-pantheon/internal/religions/models"
	"go-pantheon/internal/religions/services"
	"go-pantheon/pkg/handlers"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/result"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
)

// Module holds the religion HTTP handlers
type Module struct {
	directory *services.Directory
	auth      *middleware.PlayerAuth
	validate  *validator.Validate
}

func NewModule(directory *services.Directory, auth *middleware.PlayerAuth) *Module {
	return &Module{
		directory: directory,
		auth:      auth,
		validate:  dto.NewValidator(),
	}
}

// RegisterUnifiedRoutes registers the religion operations under basePath
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID:   "religions-create",
		Method:        http.MethodPost,
		Path:          basePath,
		Summary:       "Found a religion",
		Description:   "Creates a religion led by the authenticated player.",
		Tags:          []string{"Religions"},
		DefaultStatus: http.StatusCreated,
	}, m.create)

	huma.Register(api, huma.Operation{
		OperationID: "religions-list",
		Method:      http.MethodGet,
		Path:        basePath,
		Summary:     "List religions",
		Tags:        []string{"Religions"},
	}, m.list)

	huma.Register(api, huma.Operation{
		OperationID: "religions-get",
		Method:      http.MethodGet,
		Path:        basePath + "/{religion_id}",
		Summary:     "Get a religion",
		Tags:        []string{"Religions"},
	}, m.get)

	huma.Register(api, huma.Operation{
		OperationID: "religions-delete",
		Method:      http.MethodDelete,
		Path:        basePath + "/{religion_id}",
		Summary:     "Delete a religion",
		Description: "Leader only. Removes the religion from its civilization, which may disband it.",
		Tags:        []string{"Religions"},
	}, m.delete)

	huma.Register(api, huma.Operation{
		OperationID: "religions-join",
		Method:      http.MethodPost,
		Path:        basePath + "/{religion_id}/members",
		Summary:     "Join a religion",
		Tags:        []string{"Religions"},
	}, m.join)

	huma.Register(api, huma.Operation{
		OperationID: "religions-leave",
		Method:      http.MethodDelete,
		Path:        basePath + "/{religion_id}/members",
		Summary:     "Leave a religion",
		Tags:        []string{"Religions"},
	}, m.leave)

	huma.Register(api, huma.Operation{
		OperationID:   "religions-add-holy-site",
		Method:        http.MethodPost,
		Path:          basePath + "/{religion_id}/holy-sites",
		Summary:       "Consecrate a holy site",
		Tags:          []string{"Religions"},
		DefaultStatus: http.StatusCreated,
	}, m.addHolySite)

	huma.Register(api, huma.Operation{
		OperationID: "religions-upgrade-holy-site",
		Method:      http.MethodPost,
		Path:        basePath + "/{religion_id}/holy-sites/{site_id}/upgrade",
		Summary:     "Upgrade a holy site",
		Tags:        []string{"Religions"},
	}, m.upgradeHolySite)

	huma.Register(api, huma.Operation{
		OperationID: "religions-ritual-upgrade",
		Method:      http.MethodPost,
		Path:        basePath + "/{religion_id}/rituals",
		Summary:     "Record a ritual tier upgrade",
		Tags:        []string{"Religions"},
	}, m.ritualUpgrade)

	huma.Register(api, huma.Operation{
		OperationID: "religions-credit-prestige",
		Method:      http.MethodPost,
		Path:        basePath + "/{religion_id}/prestige",
		Summary:     "Credit prestige",
		Description: "Ledger entry posted by the game server when a religion earns or loses prestige.",
		Tags:        []string{"Religions"},
	}, m.creditPrestige)
}

func (m *Module) validateBody(body any) error {
	if err := m.validate.Struct(body); err != nil {
		messages := handlers.ValidationMessages(err)
		return huma.Error422UnprocessableEntity(messages[0])
	}
	return nil
}

// requireLeader resolves the caller and checks they lead religionID
func (m *Module) requireLeader(headers dto.AuthHeaders, religionID string) (*middleware.AuthenticatedPlayer, error) {
	player, err := m.auth.Authenticate(headers.Authorization, headers.Cookie)
	if err != nil {
		return nil, err
	}
	religion, ok := m.directory.Get(religionID)
	if !ok {
		return nil, huma.Error404NotFound("Religion not found")
	}
	if religion.LeaderID != player.PlayerID {
		return nil, huma.Error403Forbidden("Only the religion leader may do that")
	}
	return player, nil
}

func (m *Module) create(ctx context.Context, input *dto.CreateReligionInput) (*dto.ReligionOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := m.validateBody(input.Body); err != nil {
		return nil, err
	}

	religion, outcome, err := m.directory.Create(ctx, services.CreateInput{
		Name:     input.Body.Name,
		LeaderID: player.PlayerID,
		Deity:    models.DeityDomain(input.Body.Deity),
	})
	if err := handlers.Respond("Failed to create religion", outcome, err); err != nil {
		return nil, err
	}
	return &dto.ReligionOutput{Body: dto.NewReligionResponse(religion)}, nil
}

func (m *Module) list(ctx context.Context, input *dto.ListReligionsInput) (*dto.ReligionListOutput, error) {
	religions := m.directory.List()
	out := &dto.ReligionListOutput{}
	out.Body.Religions = make([]dto.ReligionResponse, 0, len(religions))
	for _, r := range religions {
		out.Body.Religions = append(out.Body.Religions, dto.NewReligionResponse(r))
	}
	out.Body.Total = len(religions)
	return out, nil
}

func (m *Module) get(ctx context.Context, input *dto.GetReligionInput) (*dto.ReligionOutput, error) {
	religion, ok := m.directory.Get(input.ReligionID)
	if !ok {
		return nil, huma.Error404NotFound("Religion not found")
	}
	return &dto.ReligionOutput{Body: dto.NewReligionResponse(religion)}, nil
}

func (m *Module) delete(ctx context.Context, input *dto.DeleteReligionInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.directory.Delete(ctx, input.ReligionID, player.PlayerID)
	return outcomeOutput("Failed to delete religion", outcome, err)
}

func (m *Module) join(ctx context.Context, input *dto.JoinReligionInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.directory.AddMember(ctx, input.ReligionID, player.PlayerID)
	return outcomeOutput("Failed to join religion", outcome, err)
}

func (m *Module) leave(ctx context.Context, input *dto.LeaveReligionInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.directory.RemoveMember(ctx, input.ReligionID, player.PlayerID)
	return outcomeOutput("Failed to leave religion", outcome, err)
}

func (m *Module) addHolySite(ctx context.Context, input *dto.AddHolySiteInput) (*dto.HolySiteOutput, error) {
	if _, err := m.requireLeader(input.AuthHeaders, input.ReligionID); err != nil {
		return nil, err
	}
	if err := m.validateBody(input.Body); err != nil {
		return nil, err
	}
	site, outcome, err := m.directory.AddHolySite(ctx, input.ReligionID, input.Body.Name)
	if err := handlers.Respond("Failed to add holy site", outcome, err); err != nil {
		return nil, err
	}
	return &dto.HolySiteOutput{Body: site}, nil
}

func (m *Module) upgradeHolySite(ctx context.Context, input *dto.UpgradeHolySiteInput) (*dto.OutcomeOutput, error) {
	if _, err := m.requireLeader(input.AuthHeaders, input.ReligionID); err != nil {
		return nil, err
	}
	outcome, err := m.directory.UpgradeHolySite(ctx, input.ReligionID, input.SiteID)
	return outcomeOutput("Failed to upgrade holy site", outcome, err)
}

func (m *Module) ritualUpgrade(ctx context.Context, input *dto.RitualUpgradeInput) (*dto.RitualOutput, error) {
	if _, err := m.requireLeader(input.AuthHeaders, input.ReligionID); err != nil {
		return nil, err
	}
	count, err := m.directory.RecordRitualUpgrade(ctx, input.ReligionID)
	if err != nil {
		return nil, handlers.ServiceError("Failed to record ritual upgrade", err)
	}
	out := &dto.RitualOutput{}
	out.Body.RitualUpgrades = count
	return out, nil
}

func (m *Module) creditPrestige(ctx context.Context, input *dto.CreditPrestigeInput) (*dto.ReligionOutput, error) {
	if _, err := m.auth.Authenticate(input.Authorization, input.Cookie); err != nil {
		return nil, err
	}
	if err := m.validateBody(input.Body); err != nil {
		return nil, err
	}
	if _, ok := m.directory.Get(input.ReligionID); !ok {
		return nil, huma.Error404NotFound("Religion not found")
	}
	if err := m.directory.Credit(ctx, input.ReligionID, input.Body.Amount, input.Body.Reason); err != nil {
		return nil, handlers.ServiceError("Failed to credit prestige", err)
	}
	religion, _ := m.directory.Get(input.ReligionID)
	return &dto.ReligionOutput{Body: dto.NewReligionResponse(religion)}, nil
}

func outcomeOutput(message string, outcome result.Outcome, err error) (*dto.OutcomeOutput, error) {
	if err := handlers.Respond(message, outcome, err); err != nil {
		return nil, err
	}
	return &dto.OutcomeOutput{Body: outcome}, nil
}
