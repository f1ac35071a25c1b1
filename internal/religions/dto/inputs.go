package dto

// AuthHeaders is embedded by every authenticated input
type AuthHeaders struct {
	Authorization string `header:"Authorization" doc:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" doc:"Authentication cookie"`
}

type CreateReligionRequest struct {
	Name  string `json:"name" validate:"required,min=3,max=32" minLength:"3" maxLength:"32" doc:"Religion name" example:"Order of Embers"`
	Deity string `json:"deity" validate:"required,deity_domain" enum:"craft,wild,harvest,stone,conquest,light,death" doc:"Deity domain"`
}

type CreateReligionInput struct {
	AuthHeaders
	Body CreateReligionRequest
}

type ListReligionsInput struct{}

type GetReligionInput struct {
	ReligionID string `path:"religion_id" doc:"Religion ID"`
}

type DeleteReligionInput struct {
	AuthHeaders
	ReligionID string `path:"religion_id" doc:"Religion ID"`
}

type JoinReligionInput struct {
	AuthHeaders
	ReligionID string `path:"religion_id" doc:"Religion ID"`
}

type LeaveReligionInput struct {
	AuthHeaders
	ReligionID string `path:"religion_id" doc:"Religion ID"`
}

type AddHolySiteRequest struct {
	Name string `json:"name" validate:"required,max=64" maxLength:"64" doc:"Holy site name"`
}

type AddHolySiteInput struct {
	AuthHeaders
	ReligionID string `path:"religion_id" doc:"Religion ID"`
	Body       AddHolySiteRequest
}

type UpgradeHolySiteInput struct {
	AuthHeaders
	ReligionID string `path:"religion_id" doc:"Religion ID"`
	SiteID     string `path:"site_id" doc:"Holy site ID"`
}

type RitualUpgradeInput struct {
	AuthHeaders
	ReligionID string `path:"religion_id" doc:"Religion ID"`
}

type CreditPrestigeRequest struct {
	Amount int    `json:"amount" validate:"required,min=-100000,max=100000" doc:"Prestige delta"`
	Reason string `json:"reason" validate:"required,max=128" doc:"Ledger reason"`
}

type CreditPrestigeInput struct {
	AuthHeaders
	ReligionID string `path:"religion_id" doc:"Religion ID"`
	Body       CreditPrestigeRequest
}
