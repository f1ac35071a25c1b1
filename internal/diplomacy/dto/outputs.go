package dto

import (
	"go-pantheon/internal/diplomacy/models"
	"go-pantheon/pkg/result"
)

type ProposalOutput struct {
	Body models.Proposal
}

type ProposalListOutput struct {
	Body struct {
		Proposals []models.Proposal `json:"proposals"`
		Total     int               `json:"total"`
	}
}

type RelationshipListOutput struct {
	Body struct {
		Relationships []models.Relationship `json:"relationships"`
		Total         int                   `json:"total"`
	}
}

type StatusOutput struct {
	Body struct {
		Status          models.Status `json:"status"`
		FavorMultiplier float64       `json:"favor_multiplier"`
	}
}

type OutcomeOutput struct {
	Body result.Outcome
}
