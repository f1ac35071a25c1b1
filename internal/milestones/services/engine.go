package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	civModels "go-pantheon/internal/civilization/models"
	"go-pantheon/internal/milestones/models"
	religionModels "go-pantheon/internal/religions/models"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/result"
)

// ErrUnknownMilestone is returned by Unlock for ids outside the catalog
var ErrUnknownMilestone = errors.New("unknown milestone")

// Civilizations is the subset of the registry the engine reads and writes
type Civilizations interface {
	Get(civID string) (civModels.Civilization, bool)
	GetByReligion(religionID string) (civModels.Civilization, bool)
	List() []civModels.Civilization
	RecordMilestone(ctx context.Context, civID string, grant civModels.Grant) (bool, int, error)
}

// Religions supplies trigger counters and pays prestige rewards
type Religions interface {
	Get(id string) (religionModels.Religion, bool)
	Credit(ctx context.Context, religionID string, amount int, reason string) error
}

// Diplomacy reports live treaties for diplomatic_relationship_count
type Diplomacy interface {
	ActiveRelationshipCount(civID string) int
}

// Engine evaluates milestone triggers and caches each civilization's bonus
// snapshot. Completion state lives on the civilization; the engine only owns
// the cache, so mu is never held across calls into the registry.
type Engine struct {
	mu         sync.Mutex
	cache      map[string]models.BonusSnapshot
	generation map[string]uint64
	diplomacy  Diplomacy

	catalog       []models.Definition
	byID          map[string]models.Definition
	civilizations Civilizations
	religions     Religions
	publisher     events.Publisher

	bus  *events.Bus
	subs []events.Subscription
}

// Option configures an Engine
type Option func(*Engine)

// WithDiplomacy sets the treaty reader at construction
func WithDiplomacy(d Diplomacy) Option {
	return func(e *Engine) { e.diplomacy = d }
}

func NewEngine(catalog []models.Definition, civilizations Civilizations, religions Religions, publisher events.Publisher, opts ...Option) *Engine {
	if publisher == nil {
		publisher = events.Discard{}
	}
	e := &Engine{
		cache:         make(map[string]models.BonusSnapshot),
		generation:    make(map[string]uint64),
		catalog:       catalog,
		byID:          make(map[string]models.Definition, len(catalog)),
		civilizations: civilizations,
		religions:     religions,
		publisher:     publisher,
	}
	for _, def := range catalog {
		e.byID[def.ID] = def
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetDiplomacy attaches the treaty reader once the diplomacy engine exists
func (e *Engine) SetDiplomacy(d Diplomacy) {
	e.mu.Lock()
	e.diplomacy = d
	e.mu.Unlock()
}

// Wire subscribes the engine to every event that can move a trigger
func (e *Engine) Wire(bus *events.Bus) {
	e.bus = bus

	byCivilization := func(ctx context.Context, evt events.Event) {
		e.Invalidate(evt.CivilizationID)
		e.check(ctx, evt.CivilizationID)
	}
	byReligion := func(ctx context.Context, evt events.Event) {
		if civ, ok := e.civilizations.GetByReligion(evt.ReligionID); ok {
			e.check(ctx, civ.ID)
		}
	}

	e.subs = append(e.subs,
		bus.Subscribe(events.CivilizationMemberAdded, byCivilization),
		bus.Subscribe(events.CivilizationMemberRemoved, byCivilization),
		bus.Subscribe(events.CivilizationWarKill, func(ctx context.Context, evt events.Event) {
			e.check(ctx, evt.CivilizationID)
		}),
		bus.Subscribe(events.RelationshipEstablished, func(ctx context.Context, evt events.Event) {
			e.check(ctx, evt.CivilizationID)
			e.check(ctx, evt.OtherID)
		}),
		bus.Subscribe(events.ReligionMemberCountChanged, byReligion),
		bus.Subscribe(events.HolySiteCreated, byReligion),
		bus.Subscribe(events.HolySiteUpgraded, byReligion),
		bus.Subscribe(events.RitualUpgraded, byReligion),
		bus.Subscribe(events.CivilizationDisbanded, func(_ context.Context, evt events.Event) {
			e.forget(evt.CivilizationID)
		}),
	)
}

// Close removes the subscriptions made by Wire
func (e *Engine) Close() {
	if e.bus != nil {
		e.bus.UnsubscribeAll(e.subs)
	}
	e.subs = nil
	e.bus = nil
}

func (e *Engine) check(ctx context.Context, civID string) {
	if civID == "" {
		return
	}
	if _, err := e.CheckMilestones(ctx, civID); err != nil {
		slog.ErrorContext(ctx, "Failed to check milestones", "civilization_id", civID, "error", err)
	}
}

// Catalog returns the loaded definitions in catalog order
func (e *Engine) Catalog() []models.Definition {
	return append([]models.Definition(nil), e.catalog...)
}

// CheckMilestones unlocks every milestone whose trigger is met and returns
// the ids unlocked by this call. Passes repeat until nothing new unlocks so
// major_milestone_count sees milestones completed earlier in the same call.
func (e *Engine) CheckMilestones(ctx context.Context, civID string) ([]string, error) {
	if err := result.RequireIDs("civilization_id", civID); err != nil {
		return nil, err
	}

	var unlocked []string
	for pass := 0; pass <= len(e.catalog); pass++ {
		// Re-read each pass to see this call's unlocks
		civ, ok := e.civilizations.Get(civID)
		if !ok {
			return unlocked, nil
		}

		progressed := false
		for _, def := range e.catalog {
			if civ.HasMilestone(def.ID) {
				continue
			}
			if e.currentValue(civ, def.Trigger.Type) < def.Trigger.Threshold {
				continue
			}
			applied, err := e.unlock(ctx, civ, def)
			if err != nil {
				return unlocked, err
			}
			if applied {
				unlocked = append(unlocked, def.ID)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return unlocked, nil
}

// CheckAll evaluates every live civilization and returns the unlock count
func (e *Engine) CheckAll(ctx context.Context) int {
	total := 0
	for _, civ := range e.civilizations.List() {
		unlocked, err := e.CheckMilestones(ctx, civ.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check milestones", "civilization_id", civ.ID, "error", err)
		}
		total += len(unlocked)
	}
	return total
}

// Unlock completes milestoneID for civID regardless of its trigger. It
// reports false when the milestone was already complete.
func (e *Engine) Unlock(ctx context.Context, civID, milestoneID string) (bool, error) {
	if err := result.RequireIDs("civilization_id", civID, "milestone_id", milestoneID); err != nil {
		return false, err
	}
	def, ok := e.byID[milestoneID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownMilestone, milestoneID)
	}
	civ, ok := e.civilizations.Get(civID)
	if !ok {
		return false, fmt.Errorf("%w: civilization %s not found", result.ErrInvalidArgument, civID)
	}
	return e.unlock(ctx, civ, def)
}

func (e *Engine) unlock(ctx context.Context, civ civModels.Civilization, def models.Definition) (bool, error) {
	grant := civModels.Grant{MilestoneID: def.ID}
	if def.IsMajor() {
		grant.RankReward = def.RankReward
	}
	if def.Benefit != nil && def.Benefit.Type == models.BenefitUnlockBonus {
		grant.UnlockBonusID = def.Benefit.BonusID
	}

	applied, rank, err := e.civilizations.RecordMilestone(ctx, civ.ID, grant)
	if err != nil {
		return false, fmt.Errorf("failed to record milestone %s: %w", def.ID, err)
	}
	if !applied {
		return false, nil
	}
	e.Invalidate(civ.ID)

	if def.PrestigePayout > 0 && civ.FounderReligionID != "" {
		if err := e.religions.Credit(ctx, civ.FounderReligionID, def.PrestigePayout, "milestone "+def.Name); err != nil {
			slog.WarnContext(ctx, "Failed to pay milestone prestige",
				"civilization_id", civ.ID,
				"milestone_id", def.ID,
				"religion_id", civ.FounderReligionID,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Milestone unlocked",
		"civilization_id", civ.ID,
		"milestone_id", def.ID,
		"type", def.Type,
		"rank", rank)

	e.publisher.Publish(ctx, events.Event{
		Topic:          events.MilestoneUnlocked,
		CivilizationID: civ.ID,
		MilestoneID:    def.ID,
		Value:          rank,
	})
	if grant.RankReward > 0 {
		e.publisher.Publish(ctx, events.Event{
			Topic:          events.RankIncreased,
			CivilizationID: civ.ID,
			MilestoneID:    def.ID,
			Value:          rank,
		})
	}
	return true, nil
}

// currentValue reads a trigger counter from civ and its member religions
func (e *Engine) currentValue(civ civModels.Civilization, trigger models.TriggerType) int {
	switch trigger {
	case models.TriggerReligionCount:
		return len(civ.ReligionIDs)
	case models.TriggerWarKillCount:
		return civ.WarKills
	case models.TriggerMajorMilestoneCount:
		count := 0
		for _, id := range civ.CompletedMilestones {
			if def, ok := e.byID[id]; ok && def.IsMajor() {
				count++
			}
		}
		return count
	case models.TriggerDiplomaticRelationship:
		e.mu.Lock()
		d := e.diplomacy
		e.mu.Unlock()
		if d == nil {
			return 0
		}
		return d.ActiveRelationshipCount(civ.ID)
	}

	domains := make(map[religionModels.DeityDomain]struct{})
	value := 0
	for _, id := range civ.ReligionIDs {
		religion, ok := e.religions.Get(id)
		if !ok {
			continue
		}
		switch trigger {
		case models.TriggerDomainCount:
			domains[religion.Deity] = struct{}{}
		case models.TriggerHolySiteCount:
			value += religion.HolySiteCount()
		case models.TriggerRitualCount:
			value += religion.RitualUpgrades
		case models.TriggerMemberCount:
			value += religion.MemberCount()
		case models.TriggerHolySiteTier:
			value = max(value, religion.HighestHolySiteTier())
		}
	}
	if trigger == models.TriggerDomainCount {
		return len(domains)
	}
	return value
}

// GetActiveBonuses returns the cached bonus snapshot for civID, folding the
// completed milestones on a miss. A fold that raced an invalidation is
// returned but not cached.
func (e *Engine) GetActiveBonuses(ctx context.Context, civID string) (models.BonusSnapshot, bool) {
	e.mu.Lock()
	if snap, ok := e.cache[civID]; ok {
		e.mu.Unlock()
		return snap.Clone(), true
	}
	// Fold outside the lock
	gen := e.generation[civID]
	e.mu.Unlock()

	civ, ok := e.civilizations.Get(civID)
	if !ok {
		return models.BonusSnapshot{}, false
	}
	snap := e.fold(civ)

	e.mu.Lock()
	// Skip caching if invalidated meanwhile
	if e.generation[civID] == gen {
		e.cache[civID] = snap
	}
	e.mu.Unlock()

	slog.DebugContext(ctx, "Bonus snapshot computed", "civilization_id", civID, "milestones", len(civ.CompletedMilestones))
	return snap.Clone(), true
}

func (e *Engine) fold(civ civModels.Civilization) models.BonusSnapshot {
	snap := models.BaselineBonuses()
	for _, id := range civ.CompletedMilestones {
		def, ok := e.byID[id]
		if !ok || def.Benefit == nil {
			continue
		}
		snap.Apply(*def.Benefit)
	}
	for _, bonus := range civ.UnlockedBonuses {
		snap.Apply(models.Benefit{Type: models.BenefitUnlockBonus, BonusID: bonus})
	}
	return snap
}

// Invalidate drops the cached snapshot for civID
func (e *Engine) Invalidate(civID string) {
	e.mu.Lock()
	delete(e.cache, civID)
	e.generation[civID]++
	e.mu.Unlock()
}

func (e *Engine) forget(civID string) {
	e.mu.Lock()
	delete(e.cache, civID)
	delete(e.generation, civID)
	e.mu.Unlock()
}

// Cached reports whether a snapshot is cached for civID
func (e *Engine) Cached(civID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.cache[civID]
	return ok
}

// Progress lists every milestone with civID's current trigger value
func (e *Engine) Progress(ctx context.Context, civID string) ([]models.ProgressEntry, bool) {
	civ, ok := e.civilizations.Get(civID)
	if !ok {
		return nil, false
	}

	entries := make([]models.ProgressEntry, 0, len(e.catalog))
	for _, def := range e.catalog {
		entries = append(entries, models.ProgressEntry{
			MilestoneID: def.ID,
			Name:        def.Name,
			Type:        def.Type,
			Trigger:     def.Trigger.Type,
			Current:     e.currentValue(civ, def.Trigger.Type),
			Threshold:   def.Trigger.Threshold,
			Completed:   civ.HasMilestone(def.ID),
		})
	}
	return entries, true
}
