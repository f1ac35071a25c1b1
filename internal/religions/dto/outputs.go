package dto

import (
	"go-pantheon/internal/religions/models"
	"go-pantheon/pkg/result"
)

// ReligionResponse adds the derived rank to a religion
type ReligionResponse struct {
	models.Religion
	Rank models.PrestigeRank `json:"rank"`
}

func NewReligionResponse(r models.Religion) ReligionResponse {
	return ReligionResponse{Religion: r, Rank: models.RankForPrestige(r.Prestige)}
}

type ReligionOutput struct {
	Body ReligionResponse
}

type ReligionListOutput struct {
	Body struct {
		Religions []ReligionResponse `json:"religions"`
		Total     int                `json:"total"`
	}
}

type HolySiteOutput struct {
	Body models.HolySite
}

type RitualOutput struct {
	Body struct {
		RitualUpgrades int `json:"ritual_upgrades"`
	}
}

type OutcomeOutput struct {
	Body result.Outcome
}
