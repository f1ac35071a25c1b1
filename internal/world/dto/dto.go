package dto

import (
	"go-pantheon/internal/world/models"

	"github.com/go-playground/validator/v10"
)

// AuthHeaders is embedded by every authenticated input
type AuthHeaders struct {
	Authorization string `header:"Authorization" doc:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" doc:"Authentication cookie"`
}

type KillRequest struct {
	KillerID string `json:"killer_id" validate:"required" doc:"Player who scored the kill"`
	VictimID string `json:"victim_id" validate:"required,nefield=KillerID" doc:"Player who was killed"`
}

type KillInput struct {
	AuthHeaders
	Body KillRequest
}

type CheckpointInput struct {
	AuthHeaders
}

type KillOutput struct {
	Body models.KillReport
}

type MaintenanceOutput struct {
	Body models.MaintenanceReport
}

type SaveOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func NewValidator() *validator.Validate {
	return validator.New()
}
