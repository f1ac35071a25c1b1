package dto

// AuthHeaders is embedded by every authenticated input
type AuthHeaders struct {
	Authorization string `header:"Authorization" doc:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" doc:"Authentication cookie"`
}

type CreateCivilizationRequest struct {
	Name        string `json:"name" validate:"required,civilization_name" minLength:"3" maxLength:"32" doc:"Civilization name" example:"Aurora"`
	Icon        string `json:"icon,omitempty" validate:"omitempty,max=64" maxLength:"64" doc:"Icon key shown in the civilization list"`
	Description string `json:"description,omitempty" validate:"max=200" maxLength:"200" doc:"Public description"`
}

type CreateCivilizationInput struct {
	AuthHeaders
	Body CreateCivilizationRequest
}

type ListCivilizationsInput struct{}

type GetCivilizationInput struct {
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
}

type DisbandCivilizationInput struct {
	AuthHeaders
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
}

type InviteReligionRequest struct {
	ReligionID string `json:"religion_id" validate:"required" doc:"Religion to invite"`
}

type InviteReligionInput struct {
	AuthHeaders
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
	Body           InviteReligionRequest
}

type ListCivilizationInvitesInput struct {
	AuthHeaders
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
}

type MyInvitesInput struct {
	AuthHeaders
}

type RespondInviteInput struct {
	AuthHeaders
	InviteID string `path:"invite_id" doc:"Invite ID"`
}

type LeaveCivilizationInput struct {
	AuthHeaders
}

type KickReligionInput struct {
	AuthHeaders
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
	ReligionID     string `path:"religion_id" doc:"Religion ID"`
}
