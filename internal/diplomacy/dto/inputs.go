package dto

// AuthHeaders is embedded by every authenticated input
type AuthHeaders struct {
	Authorization string `header:"Authorization" doc:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" doc:"Authentication cookie"`
}

type ProposeRequest struct {
	CivilizationID string `json:"civilization_id" validate:"required" doc:"Proposing civilization; the caller must be its founder"`
	TargetID       string `json:"target_id" validate:"required,nefield=CivilizationID" doc:"Civilization receiving the proposal"`
	Status         string `json:"status" validate:"required,diplomatic_status" enum:"non_aggression_pact,alliance" doc:"Proposed relationship"`
	DurationHours  int    `json:"duration_hours,omitempty" validate:"omitempty,min=1,max=720" minimum:"1" maximum:"720" doc:"Custom non-aggression pact length"`
}

type ProposeInput struct {
	AuthHeaders
	Body ProposeRequest
}

type RespondProposalInput struct {
	AuthHeaders
	ProposalID string `path:"proposal_id" doc:"Proposal ID"`
}

// PairRequest names the acting civilization and its counterpart
type PairRequest struct {
	CivilizationID string `json:"civilization_id" validate:"required" doc:"Acting civilization; the caller must be its founder"`
	TargetID       string `json:"target_id" validate:"required,nefield=CivilizationID" doc:"Other civilization"`
}

type PairInput struct {
	AuthHeaders
	Body PairRequest
}

type CivilizationInput struct {
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
}

type StatusInput struct {
	CivilizationID string `query:"civilization_id" required:"true" doc:"First civilization"`
	TargetID       string `query:"target_id" required:"true" doc:"Second civilization"`
}
