package models

import "slices"

// MilestoneType separates rank-granting milestones from minor ones
type MilestoneType string

const (
	TypeMajor MilestoneType = "major"
	TypeMinor MilestoneType = "minor"
)

// TriggerType names the civilization counter a milestone watches
type TriggerType string

const (
	TriggerReligionCount          TriggerType = "religion_count"
	TriggerDomainCount            TriggerType = "domain_count"
	TriggerHolySiteCount          TriggerType = "holy_site_count"
	TriggerRitualCount            TriggerType = "ritual_count"
	TriggerMemberCount            TriggerType = "member_count"
	TriggerWarKillCount           TriggerType = "war_kill_count"
	TriggerHolySiteTier           TriggerType = "holy_site_tier"
	TriggerDiplomaticRelationship TriggerType = "diplomatic_relationship_count"
	TriggerMajorMilestoneCount    TriggerType = "major_milestone_count"
)

var TriggerTypes = []TriggerType{
	TriggerReligionCount,
	TriggerDomainCount,
	TriggerHolySiteCount,
	TriggerRitualCount,
	TriggerMemberCount,
	TriggerWarKillCount,
	TriggerHolySiteTier,
	TriggerDiplomaticRelationship,
	TriggerMajorMilestoneCount,
}

func (t TriggerType) Valid() bool {
	return slices.Contains(TriggerTypes, t)
}

// BenefitType names the permanent effect of a completed milestone
type BenefitType string

const (
	BenefitUnlockBonus          BenefitType = "unlock_bonus"
	BenefitPrestigeMultiplier   BenefitType = "prestige_multiplier"
	BenefitFavorMultiplier      BenefitType = "favor_multiplier"
	BenefitConquestMultiplier   BenefitType = "conquest_multiplier"
	BenefitBonusHolySiteSlots   BenefitType = "bonus_holy_site_slots"
	BenefitAllRewardsMultiplier BenefitType = "all_rewards_multiplier"
)

var BenefitTypes = []BenefitType{
	BenefitUnlockBonus,
	BenefitPrestigeMultiplier,
	BenefitFavorMultiplier,
	BenefitConquestMultiplier,
	BenefitBonusHolySiteSlots,
	BenefitAllRewardsMultiplier,
}

func (b BenefitType) Valid() bool {
	return slices.Contains(BenefitTypes, b)
}

type Trigger struct {
	Type      TriggerType `yaml:"type" json:"type" validate:"required,trigger_type"`
	Threshold int         `yaml:"threshold" json:"threshold" validate:"min=1"`
}

// Benefit is applied once and folded into the bonus snapshot. Value is a
// multiplier delta over the 1.0 baseline.
type Benefit struct {
	Type    BenefitType `yaml:"type" json:"type" validate:"required,benefit_type"`
	BonusID string      `yaml:"bonus_id,omitempty" json:"bonus_id,omitempty"`
	Value   float64     `yaml:"value,omitempty" json:"value,omitempty"`
	Slots   int         `yaml:"slots,omitempty" json:"slots,omitempty" validate:"min=0"`
}

// Definition is a static milestone loaded from the catalog
type Definition struct {
	ID             string        `yaml:"id" json:"id" validate:"required"`
	Name           string        `yaml:"name" json:"name" validate:"required"`
	Description    string        `yaml:"description,omitempty" json:"description,omitempty"`
	Type           MilestoneType `yaml:"type" json:"type" validate:"required,oneof=major minor"`
	Trigger        Trigger       `yaml:"trigger" json:"trigger"`
	RankReward     int           `yaml:"rank_reward,omitempty" json:"rank_reward,omitempty" validate:"min=0"`
	PrestigePayout int           `yaml:"prestige_payout,omitempty" json:"prestige_payout,omitempty" validate:"min=0"`
	Benefit        *Benefit      `yaml:"benefit,omitempty" json:"benefit,omitempty"`
}

func (d Definition) IsMajor() bool {
	return d.Type == TypeMajor
}

// Catalog is the file layout of the milestone catalog
type Catalog struct {
	Milestones []Definition `yaml:"milestones" validate:"required,min=1,dive"`
}

// BonusSnapshot is the fold of every completed milestone's benefit
type BonusSnapshot struct {
	PrestigeMultiplier float64  `json:"prestige_multiplier"`
	FavorMultiplier    float64  `json:"favor_multiplier"`
	ConquestMultiplier float64  `json:"conquest_multiplier"`
	BonusHolySiteSlots int      `json:"bonus_holy_site_slots"`
	UnlockedBonuses    []string `json:"unlocked_bonuses"`
}

// BaselineBonuses is the snapshot of a civilization with no milestones
func BaselineBonuses() BonusSnapshot {
	return BonusSnapshot{
		PrestigeMultiplier: 1.0,
		FavorMultiplier:    1.0,
		ConquestMultiplier: 1.0,
		UnlockedBonuses:    []string{},
	}
}

// Apply folds one benefit into s
func (s *BonusSnapshot) Apply(b Benefit) {
	switch b.Type {
	case BenefitUnlockBonus:
		if b.BonusID != "" && !slices.Contains(s.UnlockedBonuses, b.BonusID) {
			s.UnlockedBonuses = append(s.UnlockedBonuses, b.BonusID)
		}
	case BenefitPrestigeMultiplier:
		s.PrestigeMultiplier += b.Value
	case BenefitFavorMultiplier:
		s.FavorMultiplier += b.Value
	case BenefitConquestMultiplier:
		s.ConquestMultiplier += b.Value
	case BenefitBonusHolySiteSlots:
		s.BonusHolySiteSlots += b.Slots
	case BenefitAllRewardsMultiplier:
		s.PrestigeMultiplier += b.Value
		s.FavorMultiplier += b.Value
	}
}

// Clone returns a copy sharing no slices with s
func (s BonusSnapshot) Clone() BonusSnapshot {
	s.UnlockedBonuses = slices.Clone(s.UnlockedBonuses)
	return s
}

// ProgressEntry reports how close a civilization is to one milestone
type ProgressEntry struct {
	MilestoneID string        `json:"milestone_id"`
	Name        string        `json:"name"`
	Type        MilestoneType `json:"type"`
	Trigger     TriggerType   `json:"trigger"`
	Current     int           `json:"current"`
	Threshold   int           `json:"threshold"`
	Completed   bool          `json:"completed"`
}
