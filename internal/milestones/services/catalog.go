package services

import (
	"errors"
	"fmt"
	"os"

	"go-pantheon/internal/milestones/data"
	"go-pantheon/internal/milestones/dto"
	"go-pantheon/internal/milestones/models"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog wraps every catalog validation failure
var ErrInvalidCatalog = errors.New("invalid milestone catalog")

// DefaultCatalog parses the embedded catalog
func DefaultCatalog() ([]models.Definition, error) {
	return ParseCatalog(data.Milestones)
}

// LoadCatalog reads the catalog at path, or the embedded one when path is empty
func LoadCatalog(path string) ([]models.Definition, error) {
	if path == "" {
		return DefaultCatalog()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read milestone catalog %s: %w", path, err)
	}
	defs, err := ParseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(raw []byte) ([]models.Definition, error) {
	var catalog models.Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("milestones.yaml: %w", err)
	}
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog.Milestones, nil
}

func validateCatalog(catalog models.Catalog) error {
	if err := dto.NewValidator().Struct(catalog); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[string]struct{}, len(catalog.Milestones))
	for _, def := range catalog.Milestones {
		if _, dup := seen[def.ID]; dup {
			return fmt.Errorf("%w: duplicate milestone id %q", ErrInvalidCatalog, def.ID)
		}
		seen[def.ID] = struct{}{}

		if def.RankReward > 0 && !def.IsMajor() {
			return fmt.Errorf("%w: %s: only major milestones carry a rank reward", ErrInvalidCatalog, def.ID)
		}
		if def.Benefit != nil {
			if err := validateBenefit(*def.Benefit); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, def.ID, err)
			}
		}
	}
	return nil
}

func validateBenefit(b models.Benefit) error {
	switch b.Type {
	case models.BenefitUnlockBonus:
		if b.BonusID == "" {
			return errors.New("unlock_bonus requires bonus_id")
		}
	case models.BenefitBonusHolySiteSlots:
		if b.Slots <= 0 {
			return errors.New("bonus_holy_site_slots requires positive slots")
		}
	default:
		if b.Value <= 0 {
			return fmt.Errorf("%s requires a positive value", b.Type)
		}
	}
	return nil
}
