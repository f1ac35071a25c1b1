package routes

import (
	"context"
	"net/http"

	"go-pantheon/internal/civilization/dto"
	"go-pantheon/internal/civilization/models"
	"go-pantheon/internal/civilization/services"
	religionModels "go-pantheon/internal/religions/models"
	"go-pantheon/pkg/handlers"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/result"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
)

// Religions resolves religions for the acting player and for responses
type Religions interface {
	Get(id string) (religionModels.Religion, bool)
	GetByPlayer(playerID string) (religionModels.Religion, bool)
}

// Module holds the civilization HTTP handlers
type Module struct {
	registry  *services.Registry
	religions Religions
	auth      *middleware.PlayerAuth
	validate  *validator.Validate
}

func NewModule(registry *services.Registry, religions Religions, auth *middleware.PlayerAuth) *Module {
	return &Module{
		registry:  registry,
		religions: religions,
		auth:      auth,
		validate:  dto.NewValidator(),
	}
}

// RegisterUnifiedRoutes registers the civilization operations under basePath
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID:   "civilizations-create",
		Method:        http.MethodPost,
		Path:          basePath,
		Summary:       "Found a civilization",
		Description:   "Founds a civilization with the religion the authenticated player leads.",
		Tags:          []string{"Civilizations"},
		DefaultStatus: http.StatusCreated,
	}, m.create)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-list",
		Method:      http.MethodGet,
		Path:        basePath,
		Summary:     "List civilizations",
		Tags:        []string{"Civilizations"},
	}, m.list)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-my-invites",
		Method:      http.MethodGet,
		Path:        basePath + "/invites",
		Summary:     "List invites for my religion",
		Tags:        []string{"Civilizations"},
	}, m.myInvites)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-accept-invite",
		Method:      http.MethodPost,
		Path:        basePath + "/invites/{invite_id}/accept",
		Summary:     "Accept an invite",
		Description: "Religion leader only. Joining purges every other invite addressed to the religion.",
		Tags:        []string{"Civilizations"},
	}, m.acceptInvite)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-decline-invite",
		Method:      http.MethodPost,
		Path:        basePath + "/invites/{invite_id}/decline",
		Summary:     "Decline an invite",
		Tags:        []string{"Civilizations"},
	}, m.declineInvite)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-leave",
		Method:      http.MethodPost,
		Path:        basePath + "/leave",
		Summary:     "Leave my civilization",
		Description: "Removes the religion the authenticated player leads from its civilization.",
		Tags:        []string{"Civilizations"},
	}, m.leave)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-get",
		Method:      http.MethodGet,
		Path:        basePath + "/{civilization_id}",
		Summary:     "Get a civilization",
		Tags:        []string{"Civilizations"},
	}, m.get)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-disband",
		Method:      http.MethodDelete,
		Path:        basePath + "/{civilization_id}",
		Summary:     "Disband a civilization",
		Description: "Founder only.",
		Tags:        []string{"Civilizations"},
	}, m.disband)

	huma.Register(api, huma.Operation{
		OperationID:   "civilizations-invite",
		Method:        http.MethodPost,
		Path:          basePath + "/{civilization_id}/invites",
		Summary:       "Invite a religion",
		Description:   "Founder only. Invites expire after seven days.",
		Tags:          []string{"Civilizations"},
		DefaultStatus: http.StatusCreated,
	}, m.invite)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-list-invites",
		Method:      http.MethodGet,
		Path:        basePath + "/{civilization_id}/invites",
		Summary:     "List pending invites of a civilization",
		Tags:        []string{"Civilizations"},
	}, m.civilizationInvites)

	huma.Register(api, huma.Operation{
		OperationID: "civilizations-kick",
		Method:      http.MethodDelete,
		Path:        basePath + "/{civilization_id}/religions/{religion_id}",
		Summary:     "Remove a member religion",
		Description: "Founder only. The founding religion cannot be removed.",
		Tags:        []string{"Civilizations"},
	}, m.kick)
}

func (m *Module) validateBody(body any) error {
	if err := m.validate.Struct(body); err != nil {
		messages := handlers.ValidationMessages(err)
		return huma.Error422UnprocessableEntity(messages[0])
	}
	return nil
}

// ledReligion returns the religion the authenticated player leads
func (m *Module) ledReligion(headers dto.AuthHeaders) (*middleware.AuthenticatedPlayer, religionModels.Religion, error) {
	player, err := m.auth.Authenticate(headers.Authorization, headers.Cookie)
	if err != nil {
		return nil, religionModels.Religion{}, err
	}
	religion, ok := m.religions.GetByPlayer(player.PlayerID)
	if !ok || religion.LeaderID != player.PlayerID {
		return nil, religionModels.Religion{}, huma.Error403Forbidden("You must lead a religion to do that")
	}
	return player, religion, nil
}

func (m *Module) create(ctx context.Context, input *dto.CreateCivilizationInput) (*dto.CivilizationOutput, error) {
	player, religion, err := m.ledReligion(input.AuthHeaders)
	if err != nil {
		return nil, err
	}
	if err := m.validateBody(input.Body); err != nil {
		return nil, err
	}

	civ, outcome, err := m.registry.Create(ctx, services.CreateInput{
		Name:              input.Body.Name,
		FounderID:         player.PlayerID,
		FounderReligionID: religion.ID,
		Icon:              input.Body.Icon,
		Description:       input.Body.Description,
	})
	if err := handlers.Respond("Failed to create civilization", outcome, err); err != nil {
		return nil, err
	}
	return &dto.CivilizationOutput{Body: dto.NewCivilizationResponse(civ, m.religions.Get)}, nil
}

func (m *Module) list(ctx context.Context, input *dto.ListCivilizationsInput) (*dto.CivilizationListOutput, error) {
	civs := m.registry.List()
	out := &dto.CivilizationListOutput{}
	out.Body.Civilizations = make([]dto.CivilizationResponse, 0, len(civs))
	for _, civ := range civs {
		out.Body.Civilizations = append(out.Body.Civilizations, dto.NewCivilizationResponse(civ, m.religions.Get))
	}
	out.Body.Total = len(civs)
	return out, nil
}

func (m *Module) get(ctx context.Context, input *dto.GetCivilizationInput) (*dto.CivilizationOutput, error) {
	civ, ok := m.registry.Get(input.CivilizationID)
	if !ok {
		return nil, huma.Error404NotFound("Civilization not found")
	}
	return &dto.CivilizationOutput{Body: dto.NewCivilizationResponse(civ, m.religions.Get)}, nil
}

func (m *Module) disband(ctx context.Context, input *dto.DisbandCivilizationInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.registry.Disband(ctx, input.CivilizationID, player.PlayerID)
	return outcomeOutput("Failed to disband civilization", outcome, err)
}

func (m *Module) invite(ctx context.Context, input *dto.InviteReligionInput) (*dto.InviteOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := m.validateBody(input.Body); err != nil {
		return nil, err
	}
	invite, outcome, err := m.registry.Invite(ctx, input.CivilizationID, input.Body.ReligionID, player.PlayerID)
	if err := handlers.Respond("Failed to invite religion", outcome, err); err != nil {
		return nil, err
	}
	return &dto.InviteOutput{Body: invite}, nil
}

func (m *Module) civilizationInvites(ctx context.Context, input *dto.ListCivilizationInvitesInput) (*dto.InviteListOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	civ, ok := m.registry.Get(input.CivilizationID)
	if !ok {
		return nil, huma.Error404NotFound("Civilization not found")
	}
	if civ.FounderID != player.PlayerID {
		return nil, huma.Error403Forbidden("Only the founder may view pending invites")
	}
	return inviteList(m.registry.InvitesForCivilization(civ.ID)), nil
}

func (m *Module) myInvites(ctx context.Context, input *dto.MyInvitesInput) (*dto.InviteListOutput, error) {
	_, religion, err := m.ledReligion(input.AuthHeaders)
	if err != nil {
		return nil, err
	}
	return inviteList(m.registry.InvitesForReligion(religion.ID)), nil
}

func (m *Module) acceptInvite(ctx context.Context, input *dto.RespondInviteInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.registry.AcceptInvite(ctx, input.InviteID, player.PlayerID)
	return outcomeOutput("Failed to accept invite", outcome, err)
}

func (m *Module) declineInvite(ctx context.Context, input *dto.RespondInviteInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.registry.DeclineInvite(ctx, input.InviteID, player.PlayerID)
	return outcomeOutput("Failed to decline invite", outcome, err)
}

func (m *Module) leave(ctx context.Context, input *dto.LeaveCivilizationInput) (*dto.OutcomeOutput, error) {
	player, religion, err := m.ledReligion(input.AuthHeaders)
	if err != nil {
		return nil, err
	}
	outcome, err := m.registry.Leave(ctx, religion.ID, player.PlayerID)
	return outcomeOutput("Failed to leave civilization", outcome, err)
}

func (m *Module) kick(ctx context.Context, input *dto.KickReligionInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.registry.Kick(ctx, input.CivilizationID, input.ReligionID, player.PlayerID)
	return outcomeOutput("Failed to remove religion", outcome, err)
}

func inviteList(invites []models.Invite) *dto.InviteListOutput {
	out := &dto.InviteListOutput{}
	out.Body.Invites = invites
	out.Body.Total = len(invites)
	return out
}

func outcomeOutput(message string, outcome result.Outcome, err error) (*dto.OutcomeOutput, error) {
	if err := handlers.Respond(message, outcome, err); err != nil {
		return nil, err
	}
	return &dto.OutcomeOutput{Body: outcome}, nil
}
