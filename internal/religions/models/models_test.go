package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankForPrestige(t *testing.T) {
	tests := []struct {
		prestige int
		want     string
	}{
		{0, "Fledgling"},
		{499, "Fledgling"},
		{500, "Established"},
		{1499, "Established"},
		{1500, "Renowned"},
		{3500, "Legendary"},
		{100000, "Mythic"},
		{-20, "Fledgling"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RankForPrestige(tt.prestige).Name)
		})
	}
}

func TestRankByIndexClamps(t *testing.T) {
	assert.Equal(t, "Fledgling", RankByIndex(-1).Name)
	assert.Equal(t, "Renowned", RankByIndex(2).Name)
	assert.Equal(t, "Mythic", RankByIndex(9).Name)
}

func TestReligionCounters(t *testing.T) {
	r := Religion{
		MemberIDs: []string{"a", "b"},
		HolySites: []HolySite{{Tier: 1}, {Tier: 3}, {Tier: 2}},
	}

	assert.Equal(t, 2, r.MemberCount())
	assert.Equal(t, 3, r.HolySiteCount())
	assert.Equal(t, 3, r.HighestHolySiteTier())
	assert.Equal(t, 0, Religion{}.HighestHolySiteTier())

	clone := r.Clone()
	clone.MemberIDs[0] = "z"
	assert.Equal(t, "a", r.MemberIDs[0])
}

func TestDeityDomainValid(t *testing.T) {
	assert.True(t, DomainHarvest.Valid())
	assert.False(t, DeityDomain("weather").Valid())
}
