package models

import diplomacyModels "go-pantheon/internal/diplomacy/models"

// KillReport describes how a PvP kill between two players was scored
type KillReport struct {
	KillerCivilizationID string                           `json:"killer_civilization_id,omitempty"`
	VictimCivilizationID string                           `json:"victim_civilization_id,omitempty"`
	Status               diplomacyModels.Status           `json:"status"`
	SameCivilization     bool                             `json:"same_civilization"`
	FavorMultiplier      float64                          `json:"favor_multiplier"`
	WarKills             int                              `json:"war_kills,omitempty"`
	Violation            *diplomacyModels.ViolationReport `json:"violation,omitempty"`
}

// MaintenanceReport counts what one maintenance pass removed
type MaintenanceReport struct {
	ExpiredInvites int                              `json:"expired_invites"`
	Diplomacy      diplomacyModels.ExpirationReport `json:"diplomacy"`
}
