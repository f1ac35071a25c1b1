package dto

import (
	"go-pantheon/internal/civilization/models"
	religionModels "go-pantheon/internal/religions/models"
	"go-pantheon/pkg/result"
)

// MemberReligion summarises a member religion for display
type MemberReligion struct {
	ID       string                     `json:"id"`
	Name     string                     `json:"name"`
	Deity    religionModels.DeityDomain `json:"deity"`
	Prestige int                        `json:"prestige"`
	Founder  bool                       `json:"founder"`
}

// CivilizationResponse is a civilization with its member religions resolved
type CivilizationResponse struct {
	models.Civilization
	Religions []MemberReligion `json:"religions"`
}

// NewCivilizationResponse resolves member religions with lookup. Religions
// lookup cannot find are omitted.
func NewCivilizationResponse(civ models.Civilization, lookup func(string) (religionModels.Religion, bool)) CivilizationResponse {
	resp := CivilizationResponse{Civilization: civ, Religions: make([]MemberReligion, 0, len(civ.ReligionIDs))}
	for _, id := range civ.ReligionIDs {
		religion, ok := lookup(id)
		if !ok {
			continue
		}
		resp.Religions = append(resp.Religions, MemberReligion{
			ID:       religion.ID,
			Name:     religion.Name,
			Deity:    religion.Deity,
			Prestige: religion.Prestige,
			Founder:  religion.ID == civ.FounderReligionID,
		})
	}
	return resp
}

type CivilizationOutput struct {
	Body CivilizationResponse
}

type CivilizationListOutput struct {
	Body struct {
		Civilizations []CivilizationResponse `json:"civilizations"`
		Total         int                    `json:"total"`
	}
}

type InviteOutput struct {
	Body models.Invite
}

type InviteListOutput struct {
	Body struct {
		Invites []models.Invite `json:"invites"`
		Total   int             `json:"total"`
	}
}

type OutcomeOutput struct {
	Body result.Outcome
}
