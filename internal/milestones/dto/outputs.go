package dto

import "go-pantheon/internal/milestones/models"

type CatalogOutput struct {
	Body struct {
		Milestones []models.Definition `json:"milestones"`
		Total      int                 `json:"total"`
	}
}

type ProgressOutput struct {
	Body struct {
		CivilizationID string                 `json:"civilization_id"`
		Completed      int                    `json:"completed"`
		Milestones     []models.ProgressEntry `json:"milestones"`
	}
}

type BonusesOutput struct {
	Body struct {
		CivilizationID string `json:"civilization_id"`
		models.BonusSnapshot
	}
}

type CheckOutput struct {
	Body struct {
		CivilizationID string   `json:"civilization_id"`
		Unlocked       []string `json:"unlocked"`
	}
}
