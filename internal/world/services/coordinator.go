package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	civModels "go-pantheon/internal/civilization/models"
	diplomacyModels "go-pantheon/internal/diplomacy/models"
	religionModels "go-pantheon/internal/religions/models"
	"go-pantheon/internal/world/models"
	"go-pantheon/pkg/result"

	"github.com/robfig/cron/v3"
)

// Persistent is a component that snapshots its state at checkpoints
type Persistent interface {
	Load(ctx context.Context) error
	Save(ctx context.Context) error
}

type Religions interface {
	Persistent
	GetByPlayer(playerID string) (religionModels.Religion, bool)
}

type Civilizations interface {
	Persistent
	GetByReligion(religionID string) (civModels.Civilization, bool)
	RecordWarKill(ctx context.Context, civID string) (int, error)
	CleanupExpiredInvites(ctx context.Context) int
}

type Diplomacy interface {
	Persistent
	GetStatus(civID, otherID string) diplomacyModels.Status
	GetFavorMultiplier(attackerID, victimID string) float64
	RecordPvPViolation(ctx context.Context, attackerID, victimID string) (diplomacyModels.ViolationReport, error)
	ProcessExpirations(ctx context.Context) diplomacyModels.ExpirationReport
}

type Milestones interface {
	CheckAll(ctx context.Context) int
}

// Coordinator runs the world-load and world-save checkpoints, periodic
// maintenance and kill scoring across the core components
type Coordinator struct {
	checkpoint sync.Mutex

	religions     Religions
	civilizations Civilizations
	diplomacy     Diplomacy
	milestones    Milestones
	cfg           Config

	runMutex sync.Mutex
	cron     *cron.Cron
	running  bool
}

func NewCoordinator(religions Religions, civilizations Civilizations, diplomacy Diplomacy, milestones Milestones, cfg Config) *Coordinator {
	return &Coordinator{
		religions:     religions,
		civilizations: civilizations,
		diplomacy:     diplomacy,
		milestones:    milestones,
		cfg:           cfg,
	}
}

// LoadAll restores every component, then sweeps expired state and catches
// up on milestones whose triggers were met while offline. A component that
// fails to load starts empty and the rest still load; the failures are
// returned joined.
func (c *Coordinator) LoadAll(ctx context.Context) error {
	c.checkpoint.Lock()
	defer c.checkpoint.Unlock()

	start := time.Now()
	steps := []struct {
		name string
		load func(context.Context) error
	}{
		{"religions", c.religions.Load},
		{"civilizations", c.civilizations.Load},
		{"diplomacy", c.diplomacy.Load},
	}

	// Components wrap their own load errors
	var errs []error
	for _, step := range steps {
		if err := step.load(ctx); err != nil {
			slog.ErrorContext(ctx, "Component failed to load, continuing empty", "component", step.name, "error", err)
			errs = append(errs, err)
		}
	}

	// Sweep and catch up even when a slot was lost
	report := c.maintain(ctx)
	unlocked := c.milestones.CheckAll(ctx)

	slog.InfoContext(ctx, "World loaded",
		"expired_invites", report.ExpiredInvites,
		"expired_diplomacy", report.Diplomacy.Total(),
		"milestones_unlocked", unlocked,
		"failed_components", len(errs),
		"duration", time.Since(start))
	return errors.Join(errs...)
}

// SaveAll runs maintenance and then snapshots every component. A failing
// component does not stop the others from saving.
func (c *Coordinator) SaveAll(ctx context.Context) error {
	c.checkpoint.Lock()
	defer c.checkpoint.Unlock()

	start := time.Now()
	c.maintain(ctx)

	var errs []error
	for _, step := range []struct {
		name string
		save func(context.Context) error
	}{
		{"religions", c.religions.Save},
		{"civilizations", c.civilizations.Save},
		{"diplomacy", c.diplomacy.Save},
	} {
		if err := step.save(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to save component", "component", step.name, "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.InfoContext(ctx, "World saved", "duration", time.Since(start))
	return nil
}

// RunMaintenance purges expired invites, proposals, pacts and due breaks
func (c *Coordinator) RunMaintenance(ctx context.Context) models.MaintenanceReport {
	c.checkpoint.Lock()
	defer c.checkpoint.Unlock()
	return c.maintain(ctx)
}

func (c *Coordinator) maintain(ctx context.Context) models.MaintenanceReport {
	report := models.MaintenanceReport{
		ExpiredInvites: c.civilizations.CleanupExpiredInvites(ctx),
		Diplomacy:      c.diplomacy.ProcessExpirations(ctx),
	}
	if report.ExpiredInvites > 0 || report.Diplomacy.Total() > 0 {
		slog.InfoContext(ctx, "Maintenance completed",
			"expired_invites", report.ExpiredInvites,
			"expired_proposals", report.Diplomacy.ExpiredProposals,
			"expired_relationships", report.Diplomacy.ExpiredRelationships,
			"executed_breaks", report.Diplomacy.ExecutedBreaks)
	}
	return report
}

// ReportKill scores a PvP kill by the diplomatic status of the two players'
// civilizations. Kills at war count toward war kill milestones; kills inside
// a pact count as violations.
func (c *Coordinator) ReportKill(ctx context.Context, killerID, victimID string) (models.KillReport, error) {
	if err := result.RequireIDs("killer_id", killerID, "victim_id", victimID); err != nil {
		return models.KillReport{}, err
	}

	report := models.KillReport{Status: diplomacyModels.StatusNeutral, FavorMultiplier: 1.0}
	killerCiv, ok := c.civilizationOf(killerID)
	if !ok {
		return report, nil
	}
	report.KillerCivilizationID = killerCiv.ID
	victimCiv, ok := c.civilizationOf(victimID)
	if !ok {
		return report, nil
	}
	report.VictimCivilizationID = victimCiv.ID

	if killerCiv.ID == victimCiv.ID {
		report.SameCivilization = true
		report.FavorMultiplier = 0
		return report, nil
	}

	report.Status = c.diplomacy.GetStatus(killerCiv.ID, victimCiv.ID)
	switch {
	case report.Status == diplomacyModels.StatusWar:
		kills, err := c.civilizations.RecordWarKill(ctx, killerCiv.ID)
		if err != nil {
			return report, fmt.Errorf("failed to record war kill: %w", err)
		}
		report.WarKills = kills
		report.FavorMultiplier = c.diplomacy.GetFavorMultiplier(killerCiv.ID, victimCiv.ID)
	case report.Status.IsPact():
		violation, err := c.diplomacy.RecordPvPViolation(ctx, killerCiv.ID, victimCiv.ID)
		if err != nil {
			return report, fmt.Errorf("failed to record treaty violation: %w", err)
		}
		report.Violation = &violation
		report.FavorMultiplier = violation.FavorMultiplier
	default:
		report.FavorMultiplier = c.diplomacy.GetFavorMultiplier(killerCiv.ID, victimCiv.ID)
	}

	slog.DebugContext(ctx, "Kill scored",
		"killer_civilization_id", killerCiv.ID,
		"victim_civilization_id", victimCiv.ID,
		"status", report.Status,
		"favor_multiplier", report.FavorMultiplier)
	return report, nil
}

func (c *Coordinator) civilizationOf(playerID string) (civModels.Civilization, bool) {
	religion, ok := c.religions.GetByPlayer(playerID)
	if !ok {
		return civModels.Civilization{}, false
	}
	return c.civilizations.GetByReligion(religion.ID)
}

// Start schedules maintenance and world saves
func (c *Coordinator) Start(ctx context.Context) error {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()

	if c.running {
		return fmt.Errorf("coordinator is already running")
	}

	c.cron = cron.New(cron.WithSeconds())
	if _, err := c.cron.AddFunc(c.cfg.MaintenanceSchedule, func() {
		c.RunMaintenance(ctx)
	}); err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", c.cfg.MaintenanceSchedule, err)
	}
	if _, err := c.cron.AddFunc(c.cfg.SaveSchedule, func() {
		if err := c.SaveAll(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled world save failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid save schedule %q: %w", c.cfg.SaveSchedule, err)
	}

	c.cron.Start()
	c.running = true
	slog.Info("World coordinator started",
		"maintenance_schedule", c.cfg.MaintenanceSchedule,
		"save_schedule", c.cfg.SaveSchedule)
	return nil
}

// Stop waits for running jobs to finish
func (c *Coordinator) Stop() {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()

	if !c.running {
		return
	}
	cronCtx := c.cron.Stop()
	<-cronCtx.Done()
	c.running = false
	slog.Info("World coordinator stopped")
}

func (c *Coordinator) IsRunning() bool {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()
	return c.running
}
