package services

import (
	"os"
	"path/filepath"
	"testing"

	"go-pantheon/internal/milestones/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	defs, err := DefaultCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	triggers := make(map[models.TriggerType]bool)
	for _, def := range defs {
		triggers[def.Trigger.Type] = true
		if def.RankReward > 0 {
			assert.True(t, def.IsMajor(), def.ID)
		}
	}
	for _, trigger := range models.TriggerTypes {
		assert.True(t, triggers[trigger], "no milestone uses %s", trigger)
	}
}

func TestParseCatalogRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "milestones: []"},
		{"unknown trigger", `
milestones:
  - {id: a, name: A, type: minor, trigger: {type: gold, threshold: 1}}`},
		{"zero threshold", `
milestones:
  - {id: a, name: A, type: minor, trigger: {type: religion_count, threshold: 0}}`},
		{"duplicate id", `
milestones:
  - {id: a, name: A, type: minor, trigger: {type: religion_count, threshold: 1}}
  - {id: a, name: B, type: minor, trigger: {type: religion_count, threshold: 2}}`},
		{"rank reward on minor", `
milestones:
  - {id: a, name: A, type: minor, rank_reward: 1, trigger: {type: religion_count, threshold: 1}}`},
		{"unknown benefit", `
milestones:
  - {id: a, name: A, type: minor, trigger: {type: religion_count, threshold: 1}, benefit: {type: luck, value: 1}}`},
		{"unlock without id", `
milestones:
  - {id: a, name: A, type: minor, trigger: {type: religion_count, threshold: 1}, benefit: {type: unlock_bonus}}`},
		{"multiplier without value", `
milestones:
  - {id: a, name: A, type: minor, trigger: {type: religion_count, threshold: 1}, benefit: {type: favor_multiplier}}`},
		{"bad type", `
milestones:
  - {id: a, name: A, type: epic, trigger: {type: religion_count, threshold: 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParseCatalogMalformedYAML(t *testing.T) {
	_, err := ParseCatalog([]byte("milestones: ["))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "milestones.yaml")
	raw := `
milestones:
  - id: pair
    name: Pair
    type: major
    rank_reward: 2
    trigger: {type: religion_count, threshold: 2}
    benefit: {type: bonus_holy_site_slots, slots: 3}
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	defs, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "pair", defs[0].ID)
	assert.Equal(t, 2, defs[0].RankReward)
	assert.Equal(t, 3, defs[0].Benefit.Slots)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
