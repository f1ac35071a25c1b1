package services

import (
	"go-pantheon/pkg/config"
)

// Config holds the tunable diplomacy rules
type Config struct {
	// WarFavorMultiplier applies to kills between civilizations at war
	WarFavorMultiplier float64
	// NAPMinRank and AllianceMinRank index the religion prestige ladder
	NAPMinRank      int
	AllianceMinRank int
	// FormationPrestige is credited to each founding religion when a pact forms
	FormationPrestige int
}

func DefaultConfig() Config {
	return Config{
		WarFavorMultiplier: 1.5,
		NAPMinRank:         1,
		AllianceMinRank:    2,
		FormationPrestige:  25,
	}
}

// ConfigFromEnv reads WAR_FAVOR_MULTIPLIER, NAP_MIN_RANK, ALLIANCE_MIN_RANK
// and FORMATION_PRESTIGE over the defaults
func ConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		WarFavorMultiplier: config.GetFloatEnv("WAR_FAVOR_MULTIPLIER", def.WarFavorMultiplier),
		NAPMinRank:         config.GetIntEnv("NAP_MIN_RANK", def.NAPMinRank),
		AllianceMinRank:    config.GetIntEnv("ALLIANCE_MIN_RANK", def.AllianceMinRank),
		FormationPrestige:  config.GetIntEnv("FORMATION_PRESTIGE", def.FormationPrestige),
	}
	if cfg.WarFavorMultiplier <= 1 {
		cfg.WarFavorMultiplier = def.WarFavorMultiplier
	}
	return cfg
}
