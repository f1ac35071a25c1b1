package routes

import (
	"context"
	"net/http"
	"time"

	"go-pantheon/internal/diplomacy/dto"
	"go-pantheon/internal/diplomacy/models"
	"go-pantheon/internal/diplomacy/services"
	"go-pantheon/pkg/handlers"
	"go-pantheon/pkg/middleware"
	"go-pantheon/pkg/result"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
)

// Module holds the diplomacy HTTP handlers
type Module struct {
	engine   *services.Engine
	auth     *middleware.PlayerAuth
	validate *validator.Validate
}

func NewModule(engine *services.Engine, auth *middleware.PlayerAuth) *Module {
	return &Module{
		engine:   engine,
		auth:     auth,
		validate: dto.NewValidator(),
	}
}

// RegisterUnifiedRoutes registers the diplomacy operations under basePath
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID:   "diplomacy-propose",
		Method:        http.MethodPost,
		Path:          basePath + "/proposals",
		Summary:       "Propose a pact",
		Description:   "Founder only. Non-aggression pacts and alliances require a member religion of sufficient prestige rank on either side.",
		Tags:          []string{"Diplomacy"},
		DefaultStatus: http.StatusCreated,
	}, m.propose)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-accept-proposal",
		Method:      http.MethodPost,
		Path:        basePath + "/proposals/{proposal_id}/accept",
		Summary:     "Accept a proposal",
		Tags:        []string{"Diplomacy"},
	}, m.accept)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-decline-proposal",
		Method:      http.MethodPost,
		Path:        basePath + "/proposals/{proposal_id}/decline",
		Summary:     "Decline a proposal",
		Tags:        []string{"Diplomacy"},
	}, m.decline)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-declare-war",
		Method:      http.MethodPost,
		Path:        basePath + "/war",
		Summary:     "Declare war",
		Description: "Founder only. Replaces any existing relationship and pending proposals between the pair.",
		Tags:        []string{"Diplomacy"},
	}, m.declareWar)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-declare-peace",
		Method:      http.MethodPost,
		Path:        basePath + "/peace",
		Summary:     "Declare peace",
		Tags:        []string{"Diplomacy"},
	}, m.declarePeace)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-schedule-break",
		Method:      http.MethodPost,
		Path:        basePath + "/breaks",
		Summary:     "Schedule a treaty break",
		Description: "The pact ends 24 hours after the announcement.",
		Tags:        []string{"Diplomacy"},
	}, m.scheduleBreak)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-cancel-break",
		Method:      http.MethodPost,
		Path:        basePath + "/breaks/cancel",
		Summary:     "Cancel a scheduled treaty break",
		Tags:        []string{"Diplomacy"},
	}, m.cancelBreak)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-status",
		Method:      http.MethodGet,
		Path:        basePath + "/status",
		Summary:     "Get the status between two civilizations",
		Tags:        []string{"Diplomacy"},
	}, m.status)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-relationships",
		Method:      http.MethodGet,
		Path:        basePath + "/civilizations/{civilization_id}/relationships",
		Summary:     "List relationships of a civilization",
		Tags:        []string{"Diplomacy"},
	}, m.relationships)

	huma.Register(api, huma.Operation{
		OperationID: "diplomacy-proposals",
		Method:      http.MethodGet,
		Path:        basePath + "/civilizations/{civilization_id}/proposals",
		Summary:     "List pending proposals of a civilization",
		Tags:        []string{"Diplomacy"},
	}, m.proposals)
}

func (m *Module) validateBody(body any) error {
	if err := m.validate.Struct(body); err != nil {
		messages := handlers.ValidationMessages(err)
		return huma.Error422UnprocessableEntity(messages[0])
	}
	return nil
}

func (m *Module) propose(ctx context.Context, input *dto.ProposeInput) (*dto.ProposalOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := m.validateBody(input.Body); err != nil {
		return nil, err
	}

	proposal, outcome, err := m.engine.ProposeRelationship(ctx, services.ProposeInput{
		ProposerID: input.Body.CivilizationID,
		TargetID:   input.Body.TargetID,
		Status:     models.Status(input.Body.Status),
		FounderID:  player.PlayerID,
		Duration:   time.Duration(input.Body.DurationHours) * time.Hour,
	})
	if err := handlers.Respond("Failed to propose relationship", outcome, err); err != nil {
		return nil, err
	}
	return &dto.ProposalOutput{Body: proposal}, nil
}

func (m *Module) accept(ctx context.Context, input *dto.RespondProposalInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.engine.AcceptProposal(ctx, input.ProposalID, player.PlayerID)
	return outcomeOutput("Failed to accept proposal", outcome, err)
}

func (m *Module) decline(ctx context.Context, input *dto.RespondProposalInput) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	outcome, err := m.engine.DeclineProposal(ctx, input.ProposalID, player.PlayerID)
	return outcomeOutput("Failed to decline proposal", outcome, err)
}

// pairAction authenticates, validates a pair body and runs action
func (m *Module) pairAction(ctx context.Context, input *dto.PairInput, message string,
	action func(ctx context.Context, civID, otherID, founderID string) (result.Outcome, error)) (*dto.OutcomeOutput, error) {
	player, err := m.auth.Authenticate(input.Authorization, input.Cookie)
	if err != nil {
		return nil, err
	}
	if err := m.validateBody(input.Body); err != nil {
		return nil, err
	}
	outcome, err := action(ctx, input.Body.CivilizationID, input.Body.TargetID, player.PlayerID)
	return outcomeOutput(message, outcome, err)
}

func (m *Module) declareWar(ctx context.Context, input *dto.PairInput) (*dto.OutcomeOutput, error) {
	return m.pairAction(ctx, input, "Failed to declare war", m.engine.DeclareWar)
}

func (m *Module) declarePeace(ctx context.Context, input *dto.PairInput) (*dto.OutcomeOutput, error) {
	return m.pairAction(ctx, input, "Failed to declare peace", m.engine.DeclarePeace)
}

func (m *Module) scheduleBreak(ctx context.Context, input *dto.PairInput) (*dto.OutcomeOutput, error) {
	return m.pairAction(ctx, input, "Failed to schedule treaty break", m.engine.ScheduleBreak)
}

func (m *Module) cancelBreak(ctx context.Context, input *dto.PairInput) (*dto.OutcomeOutput, error) {
	return m.pairAction(ctx, input, "Failed to cancel treaty break", m.engine.CancelScheduledBreak)
}

func (m *Module) status(ctx context.Context, input *dto.StatusInput) (*dto.StatusOutput, error) {
	out := &dto.StatusOutput{}
	out.Body.Status = m.engine.GetStatus(input.CivilizationID, input.TargetID)
	out.Body.FavorMultiplier = m.engine.GetFavorMultiplier(input.CivilizationID, input.TargetID)
	return out, nil
}

func (m *Module) relationships(ctx context.Context, input *dto.CivilizationInput) (*dto.RelationshipListOutput, error) {
	out := &dto.RelationshipListOutput{}
	out.Body.Relationships = m.engine.RelationshipsFor(input.CivilizationID)
	out.Body.Total = len(out.Body.Relationships)
	return out, nil
}

func (m *Module) proposals(ctx context.Context, input *dto.CivilizationInput) (*dto.ProposalListOutput, error) {
	out := &dto.ProposalListOutput{}
	out.Body.Proposals = m.engine.ProposalsFor(input.CivilizationID)
	out.Body.Total = len(out.Body.Proposals)
	return out, nil
}

func outcomeOutput(message string, outcome result.Outcome, err error) (*dto.OutcomeOutput, error) {
	if err := handlers.Respond(message, outcome, err); err != nil {
		return nil, err
	}
	return &dto.OutcomeOutput{Body: outcome}, nil
}
