package models

import (
	"time"
)

// Status is the diplomatic state between two civilizations. Neutral is never
// stored; it is the absence of a relationship.
type Status string

const (
	StatusNeutral           Status = "neutral"
	StatusNonAggressionPact Status = "non_aggression_pact"
	StatusAlliance          Status = "alliance"
	StatusWar               Status = "war"
)

// Statuses lists every status in ladder order
var Statuses = []Status{StatusNeutral, StatusNonAggressionPact, StatusAlliance, StatusWar}

func (s Status) Valid() bool {
	switch s {
	case StatusNeutral, StatusNonAggressionPact, StatusAlliance, StatusWar:
		return true
	}
	return false
}

// IsPact reports whether attacking the other side counts as a violation
func (s Status) IsPact() bool {
	return s == StatusNonAggressionPact || s == StatusAlliance
}

// Label is the human readable form used in player messages
func (s Status) Label() string {
	switch s {
	case StatusNonAggressionPact:
		return "non-aggression pact"
	case StatusAlliance:
		return "alliance"
	case StatusWar:
		return "war"
	default:
		return "neutral"
	}
}

const (
	ProposalLifetime    = 7 * 24 * time.Hour
	DefaultPactDuration = 3 * 24 * time.Hour
	MinPactDuration     = time.Hour
	MaxPactDuration     = 30 * 24 * time.Hour
	BreakNotice         = 24 * time.Hour

	// MaxViolations ends a pact on the violation that reaches it
	MaxViolations = 3
)

// Relationship is the live diplomatic state of an unordered civilization
// pair. CivilizationA sorts before CivilizationB.
type Relationship struct {
	ID               string     `json:"id" bson:"id"`
	CivilizationA    string     `json:"civilization_a" bson:"civilization_a"`
	CivilizationB    string     `json:"civilization_b" bson:"civilization_b"`
	Status           Status     `json:"status" bson:"status"`
	EstablishedBy    string     `json:"established_by" bson:"established_by"`
	EstablishedAt    time.Time  `json:"established_at" bson:"established_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	BreakScheduledAt *time.Time `json:"break_scheduled_at,omitempty" bson:"break_scheduled_at,omitempty"`
	BreakScheduledBy string     `json:"break_scheduled_by,omitempty" bson:"break_scheduled_by,omitempty"`
	Violations       int        `json:"violations" bson:"violations"`
}

// PairKey returns the sorted pair used to index relationships
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func (r Relationship) Involves(civID string) bool {
	return r.CivilizationA == civID || r.CivilizationB == civID
}

// Other returns the counterpart of civID
func (r Relationship) Other(civID string) string {
	if r.CivilizationA == civID {
		return r.CivilizationB
	}
	return r.CivilizationA
}

// IsExpired reports whether a timed pact has run out at now
func (r Relationship) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// BreakDue reports whether a scheduled break should execute at now
func (r Relationship) BreakDue(now time.Time) bool {
	return r.BreakScheduledAt != nil && !now.Before(*r.BreakScheduledAt)
}

// Clone returns a copy sharing no pointers with r
func (r Relationship) Clone() Relationship {
	if r.ExpiresAt != nil {
		at := *r.ExpiresAt
		r.ExpiresAt = &at
	}
	if r.BreakScheduledAt != nil {
		at := *r.BreakScheduledAt
		r.BreakScheduledAt = &at
	}
	return r
}

// Proposal offers a pact from ProposerID to TargetID
type Proposal struct {
	ID                string        `json:"id" bson:"id"`
	ProposerID        string        `json:"proposer_id" bson:"proposer_id"`
	TargetID          string        `json:"target_id" bson:"target_id"`
	Status            Status        `json:"status" bson:"status"`
	ProposerFounderID string        `json:"proposer_founder_id" bson:"proposer_founder_id"`
	Duration          time.Duration `json:"duration,omitempty" bson:"duration,omitempty"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
	ExpiresAt         time.Time     `json:"expires_at" bson:"expires_at"`
}

func (p Proposal) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Between reports whether the proposal links a and b in either direction
func (p Proposal) Between(a, b string) bool {
	return (p.ProposerID == a && p.TargetID == b) || (p.ProposerID == b && p.TargetID == a)
}

// ViolationReport is the result of recording a hostile act between civilizations
type ViolationReport struct {
	Count           int     `json:"count"`
	Terminated      bool    `json:"terminated"`
	FavorMultiplier float64 `json:"favor_multiplier"`
}

// ExpirationReport counts what a maintenance pass removed
type ExpirationReport struct {
	ExpiredProposals     int `json:"expired_proposals"`
	ExpiredRelationships int `json:"expired_relationships"`
	ExecutedBreaks       int `json:"executed_breaks"`
}

func (r ExpirationReport) Total() int {
	return r.ExpiredProposals + r.ExpiredRelationships + r.ExecutedBreaks
}

// Snapshot is the persisted form of the engine
type Snapshot struct {
	Relationships []Relationship `json:"relationships" bson:"relationships"`
	Proposals     []Proposal     `json:"proposals" bson:"proposals"`
}
