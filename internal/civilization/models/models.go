package models

import (
	"slices"
	"time"
)

const (
	MinReligions = 1
	MaxReligions = 4

	MinNameLength        = 3
	MaxNameLength        = 32
	MaxDescriptionLength = 200

	// InviteLifetime is how long an invite can be accepted
	InviteLifetime = 7 * 24 * time.Hour
)

// Civilization is an alliance of one to four religions with distinct deity
// domains. Rank, completed milestones and unlocked bonuses are permanent.
type Civilization struct {
	ID                  string     `json:"id" bson:"id"`
	Name                string     `json:"name" bson:"name"`
	FounderID           string     `json:"founder_id" bson:"founder_id"`
	FounderReligionID   string     `json:"founder_religion_id" bson:"founder_religion_id"`
	ReligionIDs         []string   `json:"religion_ids" bson:"religion_ids"`
	MemberCount         int        `json:"member_count" bson:"member_count"`
	Icon                string     `json:"icon,omitempty" bson:"icon,omitempty"`
	Description         string     `json:"description,omitempty" bson:"description,omitempty"`
	Rank                int        `json:"rank" bson:"rank"`
	CompletedMilestones []string   `json:"completed_milestones" bson:"completed_milestones"`
	WarKills            int        `json:"war_kills" bson:"war_kills"`
	UnlockedBonuses     []string   `json:"unlocked_bonuses" bson:"unlocked_bonuses"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at"`
	DisbandedAt         *time.Time `json:"disbanded_at,omitempty" bson:"disbanded_at,omitempty"`
}

// Clone returns a copy sharing no mutable state with c
func (c Civilization) Clone() Civilization {
	c.ReligionIDs = slices.Clone(c.ReligionIDs)
	c.CompletedMilestones = slices.Clone(c.CompletedMilestones)
	c.UnlockedBonuses = slices.Clone(c.UnlockedBonuses)
	if c.DisbandedAt != nil {
		at := *c.DisbandedAt
		c.DisbandedAt = &at
	}
	return c
}

func (c Civilization) HasReligion(religionID string) bool {
	return slices.Contains(c.ReligionIDs, religionID)
}

func (c Civilization) HasMilestone(milestoneID string) bool {
	return slices.Contains(c.CompletedMilestones, milestoneID)
}

// IsValid reports whether membership is within bounds and the civilization is live
func (c Civilization) IsValid() bool {
	n := len(c.ReligionIDs)
	return c.DisbandedAt == nil && n >= MinReligions && n <= MaxReligions
}

// Invite offers a religion membership in a civilization
type Invite struct {
	ID             string    `json:"id" bson:"id"`
	CivilizationID string    `json:"civilization_id" bson:"civilization_id"`
	ReligionID     string    `json:"religion_id" bson:"religion_id"`
	InvitedBy      string    `json:"invited_by" bson:"invited_by"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt      time.Time `json:"expires_at" bson:"expires_at"`
}

// IsExpired reports whether the invite can no longer be accepted at now
func (i Invite) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Grant is a milestone completion applied to a civilization
type Grant struct {
	MilestoneID   string
	RankReward    int
	UnlockBonusID string
}

// RegistrySnapshot is the persisted form of the registry
type RegistrySnapshot struct {
	Civilizations []Civilization `json:"civilizations" bson:"civilizations"`
	Invites       []Invite       `json:"invites" bson:"invites"`
}
