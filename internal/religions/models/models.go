package models

import (
	"slices"
	"time"
)

// DeityDomain is the sphere a religion's deity governs. A civilization may
// hold at most one religion per domain.
type DeityDomain string

const (
	DomainCraft    DeityDomain = "craft"
	DomainWild     DeityDomain = "wild"
	DomainHarvest  DeityDomain = "harvest"
	DomainStone    DeityDomain = "stone"
	DomainConquest DeityDomain = "conquest"
	DomainLight    DeityDomain = "light"
	DomainDeath    DeityDomain = "death"
)

var DeityDomains = []DeityDomain{
	DomainCraft,
	DomainWild,
	DomainHarvest,
	DomainStone,
	DomainConquest,
	DomainLight,
	DomainDeath,
}

func (d DeityDomain) Valid() bool {
	return slices.Contains(DeityDomains, d)
}

// MaxHolySiteTier is the highest tier a holy site can be upgraded to
const MaxHolySiteTier = 3

type HolySite struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Tier      int       `json:"tier" bson:"tier"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Religion is a player group led by a single leader
type Religion struct {
	ID             string      `json:"id" bson:"id"`
	Name           string      `json:"name" bson:"name"`
	LeaderID       string      `json:"leader_id" bson:"leader_id"`
	Deity          DeityDomain `json:"deity" bson:"deity"`
	MemberIDs      []string    `json:"member_ids" bson:"member_ids"`
	Prestige       int         `json:"prestige" bson:"prestige"`
	HolySites      []HolySite  `json:"holy_sites" bson:"holy_sites"`
	RitualUpgrades int         `json:"ritual_upgrades" bson:"ritual_upgrades"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
}

// Clone returns a copy that shares no slices with r
func (r Religion) Clone() Religion {
	r.MemberIDs = slices.Clone(r.MemberIDs)
	r.HolySites = slices.Clone(r.HolySites)
	return r
}

func (r Religion) MemberCount() int {
	return len(r.MemberIDs)
}

func (r Religion) HolySiteCount() int {
	return len(r.HolySites)
}

// HighestHolySiteTier returns 0 when the religion has no holy sites
func (r Religion) HighestHolySiteTier() int {
	highest := 0
	for _, site := range r.HolySites {
		highest = max(highest, site.Tier)
	}
	return highest
}

func (r Religion) HasMember(playerID string) bool {
	return slices.Contains(r.MemberIDs, playerID)
}

// PrestigeRank is one step of the prestige ladder
type PrestigeRank struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

// RankLadder is ordered by ascending threshold
var RankLadder = []PrestigeRank{
	{Index: 0, Name: "Fledgling", Threshold: 0},
	{Index: 1, Name: "Established", Threshold: 500},
	{Index: 2, Name: "Renowned", Threshold: 1500},
	{Index: 3, Name: "Legendary", Threshold: 3500},
	{Index: 4, Name: "Mythic", Threshold: 7500},
}

// RankForPrestige returns the highest rank whose threshold prestige reaches
func RankForPrestige(prestige int) PrestigeRank {
	rank := RankLadder[0]
	for _, r := range RankLadder {
		if prestige >= r.Threshold {
			rank = r
		}
	}
	return rank
}

// RankByIndex clamps index into the ladder
func RankByIndex(index int) PrestigeRank {
	index = min(max(index, 0), len(RankLadder)-1)
	return RankLadder[index]
}

// DirectorySnapshot is the persisted form of the directory
type DirectorySnapshot struct {
	Religions []Religion `json:"religions" bson:"religions"`
}
