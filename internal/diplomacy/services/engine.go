package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	civModels "go-pantheon/internal/civilization/models"
	"go-pantheon/internal/diplomacy/models"
	religionModels "go-pantheon/internal/religions/models"
	"go-pantheon/pkg/cooldown"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/notify"
	"go-pantheon/pkg/result"
	"go-pantheon/pkg/snapshot"

	"github.com/google/uuid"
)

// SnapshotSlot is the snapshot store slot holding relationships and proposals
const SnapshotSlot = "diplomacy"

// Civilizations is the subset of the registry the engine reads
type Civilizations interface {
	Get(civID string) (civModels.Civilization, bool)
}

// Religions resolves member prestige and credits formation rewards
type Religions interface {
	Get(id string) (religionModels.Religion, bool)
	Credit(ctx context.Context, religionID string, amount int, reason string) error
}

// notice is a player message delivered after the engine lock is released
type notice struct {
	playerID string
	message  string
}

// Engine owns every diplomatic relationship and pending proposal. State is
// guarded by mu; the registry and directory may be read while mu is held,
// never the other way round.
type Engine struct {
	mu            sync.Mutex
	relationships map[string]*models.Relationship
	proposals     map[string]*models.Proposal

	civilizations Civilizations
	religions     Religions
	cooldowns     cooldown.Tracker
	store         snapshot.Store
	publisher     events.Publisher
	notifier      notify.Notifier
	cfg           Config
	now           func() time.Time
	newID         func() string

	bus  *events.Bus
	subs []events.Subscription
}

// Option configures an Engine
type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func NewEngine(civilizations Civilizations, religions Religions, cooldowns cooldown.Tracker, store snapshot.Store, publisher events.Publisher, opts ...Option) *Engine {
	if publisher == nil {
		publisher = events.Discard{}
	}
	e := &Engine{
		relationships: make(map[string]*models.Relationship),
		proposals:     make(map[string]*models.Proposal),
		civilizations: civilizations,
		religions:     religions,
		cooldowns:     cooldowns,
		store:         store,
		publisher:     publisher,
		notifier:      notify.Discard{},
		cfg:           DefaultConfig(),
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cooldowns == nil {
		e.cooldowns = cooldown.NewMemoryTracker(nil, e.now)
	}
	return e
}

// Wire subscribes the engine to civilization disband events
func (e *Engine) Wire(bus *events.Bus) {
	e.bus = bus
	e.subs = append(e.subs, bus.Subscribe(events.CivilizationDisbanded, func(ctx context.Context, evt events.Event) {
		e.HandleCivilizationDisbanded(ctx, evt.CivilizationID)
	}))
}

// Close removes the subscriptions made by Wire
func (e *Engine) Close() {
	if e.bus != nil {
		e.bus.UnsubscribeAll(e.subs)
	}
	e.subs = nil
	e.bus = nil
}

func pairKey(a, b string) string {
	a, b = models.PairKey(a, b)
	return a + "|" + b
}

func (e *Engine) deliver(ctx context.Context, evts []events.Event, notices []notice) {
	for _, evt := range evts {
		e.publisher.Publish(ctx, evt)
	}
	for _, n := range notices {
		if n.playerID != "" {
			e.notifier.Notify(ctx, n.playerID, n.message)
		}
	}
}

// liveRelationshipLocked returns the pair's relationship unless it has expired
func (e *Engine) liveRelationshipLocked(a, b string) (*models.Relationship, bool) {
	rel, ok := e.relationships[pairKey(a, b)]
	if !ok || rel.IsExpired(e.now()) {
		return nil, false
	}
	return rel, true
}

// endRelationshipLocked removes rel and returns the ended event
func (e *Engine) endRelationshipLocked(rel *models.Relationship, reason string) events.Event {
	delete(e.relationships, pairKey(rel.CivilizationA, rel.CivilizationB))
	return events.Event{
		Topic:          events.RelationshipEnded,
		CivilizationID: rel.CivilizationA,
		OtherID:        rel.CivilizationB,
		Status:         string(rel.Status),
		Reason:         reason,
	}
}

// retireExpiredLocked ends the pair's relationship if it has expired but
// maintenance has not yet purged it
func (e *Engine) retireExpiredLocked(a, b string) []events.Event {
	rel, ok := e.relationships[pairKey(a, b)]
	if !ok || !rel.IsExpired(e.now()) {
		return nil
	}
	return []events.Event{e.endRelationshipLocked(rel, "expired")}
}

func (e *Engine) removeProposalsLocked(match func(*models.Proposal) bool) int {
	removed := 0
	for id, p := range e.proposals {
		if match(p) {
			delete(e.proposals, id)
			removed++
		}
	}
	return removed
}

// requiredRank returns the religion prestige rank needed to form status
func (e *Engine) requiredRank(status models.Status) int {
	switch status {
	case models.StatusNonAggressionPact:
		return e.cfg.NAPMinRank
	case models.StatusAlliance:
		return e.cfg.AllianceMinRank
	default:
		return 0
	}
}

// meetsRankGate passes when any member religion of either civilization has
// reached the rank required for status
func (e *Engine) meetsRankGate(status models.Status, civs ...civModels.Civilization) bool {
	required := e.requiredRank(status)
	if required <= 0 {
		return true
	}
	for _, civ := range civs {
		for _, religionID := range civ.ReligionIDs {
			religion, ok := e.religions.Get(religionID)
			if ok && religionModels.RankForPrestige(religion.Prestige).Index >= required {
				return true
			}
		}
	}
	return false
}

func (e *Engine) rankGateRejection(status models.Status, a, b civModels.Civilization) result.Outcome {
	rank := religionModels.RankByIndex(e.requiredRank(status))
	return result.Rejected("A %s requires a religion of rank %s (%d prestige) in %s or %s",
		status.Label(), rank.Name, rank.Threshold, a.Name, b.Name)
}

// resolvePair loads both civilizations and checks that they are distinct
// and within membership bounds
func (e *Engine) resolvePair(civID, otherID string) (civModels.Civilization, civModels.Civilization, result.Outcome) {
	if civID == otherID {
		return civModels.Civilization{}, civModels.Civilization{}, result.Rejected("A civilization cannot conduct diplomacy with itself")
	}
	civ, ok := e.civilizations.Get(civID)
	if !ok {
		return civModels.Civilization{}, civModels.Civilization{}, result.Rejected("Civilization not found")
	}
	other, ok := e.civilizations.Get(otherID)
	if !ok {
		return civModels.Civilization{}, civModels.Civilization{}, result.Rejected("Target civilization not found")
	}
	for _, c := range []civModels.Civilization{civ, other} {
		if !c.IsValid() {
			return civModels.Civilization{}, civModels.Civilization{}, result.Rejected("%s is not a valid civilization", c.Name)
		}
	}
	return civ, other, result.Ok("")
}

// ProposeInput holds the fields of a relationship proposal
type ProposeInput struct {
	ProposerID string
	TargetID   string
	Status     models.Status
	FounderID  string
	// Duration overrides the pact length of a non-aggression pact
	Duration time.Duration
}

// ProposeRelationship offers a pact to another civilization. Only the
// proposer's founder may propose; war is declared, never proposed.
func (e *Engine) ProposeRelationship(ctx context.Context, input ProposeInput) (models.Proposal, result.Outcome, error) {
	if err := result.RequireIDs("proposer_id", input.ProposerID, "target_id", input.TargetID, "founder_id", input.FounderID); err != nil {
		return models.Proposal{}, result.Outcome{}, err
	}

	switch input.Status {
	case models.StatusNonAggressionPact, models.StatusAlliance:
	case models.StatusWar:
		return models.Proposal{}, result.Rejected("War cannot be proposed; declare it instead"), nil
	default:
		return models.Proposal{}, result.Rejected("Cannot propose a %q relationship", input.Status), nil
	}
	if input.Duration != 0 {
		if input.Status != models.StatusNonAggressionPact {
			return models.Proposal{}, result.Rejected("Only a non-aggression pact can have a duration"), nil
		}
		if input.Duration < models.MinPactDuration || input.Duration > models.MaxPactDuration {
			return models.Proposal{}, result.Rejected("Pact duration must be between %d hour and %d days",
				int(models.MinPactDuration.Hours()), int(models.MaxPactDuration.Hours()/24)), nil
		}
	}

	proposer, target, outcome := e.resolvePair(input.ProposerID, input.TargetID)
	if !outcome.OK {
		return models.Proposal{}, outcome, nil
	}
	if proposer.FounderID != input.FounderID {
		return models.Proposal{}, result.Denied("Only the founder of %s may propose relationships", proposer.Name), nil
	}
	if allowed, message := e.cooldowns.CanPerform(ctx, input.FounderID, cooldown.DiplomaticProposal); !allowed {
		return models.Proposal{}, result.Rejected("%s", message), nil
	}

	e.mu.Lock()
	if rel, ok := e.liveRelationshipLocked(proposer.ID, target.ID); ok {
		e.mu.Unlock()
		return models.Proposal{}, result.Rejected("%s and %s already have a %s", proposer.Name, target.Name, rel.Status.Label()), nil
	}
	now := e.now().UTC()
	for _, p := range e.proposals {
		if p.Between(proposer.ID, target.ID) && !p.IsExpired(now) {
			e.mu.Unlock()
			return models.Proposal{}, result.Rejected("A proposal between %s and %s is already pending", proposer.Name, target.Name), nil
		}
	}
	if !e.meetsRankGate(input.Status, proposer, target) {
		e.mu.Unlock()
		return models.Proposal{}, e.rankGateRejection(input.Status, proposer, target), nil
	}

	proposal := &models.Proposal{
		ID:                e.newID(),
		ProposerID:        proposer.ID,
		TargetID:          target.ID,
		Status:            input.Status,
		ProposerFounderID: input.FounderID,
		Duration:          input.Duration,
		CreatedAt:         now,
		ExpiresAt:         now.Add(models.ProposalLifetime),
	}
	e.proposals[proposal.ID] = proposal
	created := *proposal
	e.mu.Unlock()

	e.cooldowns.Record(ctx, input.FounderID, cooldown.DiplomaticProposal)

	slog.InfoContext(ctx, "Diplomatic proposal created",
		"proposal_id", created.ID,
		"proposer_id", created.ProposerID,
		"target_id", created.TargetID,
		"status", created.Status)

	e.notifier.Notify(ctx, target.FounderID,
		fmt.Sprintf("%s proposes a %s with %s", proposer.Name, created.Status.Label(), target.Name))

	return created, result.Okf("Proposed a %s to %s", created.Status.Label(), target.Name), nil
}

// AcceptProposal turns a proposal into a relationship. Only the target's
// founder may accept and the rank gate is checked again.
func (e *Engine) AcceptProposal(ctx context.Context, proposalID, playerID string) (result.Outcome, error) {
	if err := result.RequireIDs("proposal_id", proposalID, "player_id", playerID); err != nil {
		return result.Outcome{}, err
	}

	e.mu.Lock()
	proposal, target, outcome := e.resolveProposalLocked(proposalID, playerID)
	if !outcome.OK {
		e.mu.Unlock()
		return outcome, nil
	}
	proposer, ok := e.civilizations.Get(proposal.ProposerID)
	if !ok || !proposer.IsValid() || !target.IsValid() {
		delete(e.proposals, proposalID)
		e.mu.Unlock()
		return result.Rejected("The proposing civilization no longer exists"), nil
	}
	if rel, ok := e.liveRelationshipLocked(proposer.ID, target.ID); ok {
		delete(e.proposals, proposalID)
		e.mu.Unlock()
		return result.Rejected("%s and %s already have a %s", proposer.Name, target.Name, rel.Status.Label()), nil
	}
	if !e.meetsRankGate(proposal.Status, proposer, target) {
		e.mu.Unlock()
		return e.rankGateRejection(proposal.Status, proposer, target), nil
	}

	now := e.now().UTC()
	a, b := models.PairKey(proposer.ID, target.ID)
	// An expired pact still in the map is ended before it is replaced
	evts := e.retireExpiredLocked(a, b)
	rel := &models.Relationship{
		ID:            e.newID(),
		CivilizationA: a,
		CivilizationB: b,
		Status:        proposal.Status,
		EstablishedBy: proposer.ID,
		EstablishedAt: now,
	}
	if proposal.Status == models.StatusNonAggressionPact {
		duration := proposal.Duration
		if duration == 0 {
			duration = models.DefaultPactDuration
		}
		expires := now.Add(duration)
		rel.ExpiresAt = &expires
	}
	e.relationships[pairKey(a, b)] = rel
	e.removeProposalsLocked(func(p *models.Proposal) bool { return p.Between(a, b) })
	e.mu.Unlock()

	slog.InfoContext(ctx, "Diplomatic relationship established",
		"relationship_id", rel.ID,
		"proposer_id", proposer.ID,
		"target_id", target.ID,
		"status", proposal.Status)

	e.creditFormation(ctx, proposal.Status, proposer, target)

	evts = append(evts, events.Event{
		Topic:          events.RelationshipEstablished,
		CivilizationID: proposer.ID,
		OtherID:        target.ID,
		Status:         string(proposal.Status),
	})
	e.deliver(ctx, evts, []notice{{
		playerID: proposer.FounderID,
		message:  fmt.Sprintf("%s accepted your %s", target.Name, proposal.Status.Label()),
	}})

	return result.Okf("%s and %s formed a %s", proposer.Name, target.Name, proposal.Status.Label()), nil
}

// creditFormation posts the formation reward to both founding religions.
// Ledger failures are logged; the relationship stands.
func (e *Engine) creditFormation(ctx context.Context, status models.Status, civs ...civModels.Civilization) {
	if e.cfg.FormationPrestige <= 0 {
		return
	}
	reason := fmt.Sprintf("formed %s", status.Label())
	for _, civ := range civs {
		if err := e.religions.Credit(ctx, civ.FounderReligionID, e.cfg.FormationPrestige, reason); err != nil {
			slog.WarnContext(ctx, "Failed to credit formation prestige",
				"civilization_id", civ.ID,
				"religion_id", civ.FounderReligionID,
				"error", err)
		}
	}
}

// DeclineProposal discards a proposal. Only the target's founder may decline.
func (e *Engine) DeclineProposal(ctx context.Context, proposalID, playerID string) (result.Outcome, error) {
	if err := result.RequireIDs("proposal_id", proposalID, "player_id", playerID); err != nil {
		return result.Outcome{}, err
	}

	e.mu.Lock()
	proposal, target, outcome := e.resolveProposalLocked(proposalID, playerID)
	if !outcome.OK {
		e.mu.Unlock()
		return outcome, nil
	}
	delete(e.proposals, proposalID)
	e.mu.Unlock()

	e.notifier.Notify(ctx, proposal.ProposerFounderID,
		fmt.Sprintf("%s declined your %s", target.Name, proposal.Status.Label()))
	return result.Okf("Declined the %s", proposal.Status.Label()), nil
}

// resolveProposalLocked finds a live proposal whose target is founded by playerID
func (e *Engine) resolveProposalLocked(proposalID, playerID string) (models.Proposal, civModels.Civilization, result.Outcome) {
	proposal, ok := e.proposals[proposalID]
	if !ok {
		return models.Proposal{}, civModels.Civilization{}, result.Rejected("Proposal not found")
	}
	target, ok := e.civilizations.Get(proposal.TargetID)
	if !ok {
		delete(e.proposals, proposalID)
		return models.Proposal{}, civModels.Civilization{}, result.Rejected("The target civilization no longer exists")
	}
	if target.FounderID != playerID {
		return models.Proposal{}, civModels.Civilization{}, result.Denied("Only the founder of %s may respond to this proposal", target.Name)
	}
	if proposal.IsExpired(e.now()) {
		delete(e.proposals, proposalID)
		return models.Proposal{}, civModels.Civilization{}, result.Rejected("This proposal has expired")
	}
	return *proposal, target, result.Ok("")
}

// DeclareWar unilaterally puts two civilizations at war, replacing any
// existing relationship and pending proposals
func (e *Engine) DeclareWar(ctx context.Context, declarerID, targetID, founderID string) (result.Outcome, error) {
	if err := result.RequireIDs("declarer_id", declarerID, "target_id", targetID, "founder_id", founderID); err != nil {
		return result.Outcome{}, err
	}

	declarer, target, outcome := e.resolvePair(declarerID, targetID)
	if !outcome.OK {
		return outcome, nil
	}
	if declarer.FounderID != founderID {
		return result.Denied("Only the founder of %s may declare war", declarer.Name), nil
	}
	if allowed, message := e.cooldowns.CanPerform(ctx, founderID, cooldown.WarDeclaration); !allowed {
		return result.Rejected("%s", message), nil
	}

	e.mu.Lock()
	var evts []events.Event
	if rel, ok := e.liveRelationshipLocked(declarer.ID, target.ID); ok {
		if rel.Status == models.StatusWar {
			e.mu.Unlock()
			return result.Rejected("%s is already at war with %s", declarer.Name, target.Name), nil
		}
		evts = append(evts, e.endRelationshipLocked(rel, "war declared"))
	}
	a, b := models.PairKey(declarer.ID, target.ID)
	evts = append(evts, e.retireExpiredLocked(a, b)...)
	e.removeProposalsLocked(func(p *models.Proposal) bool { return p.Between(a, b) })
	e.relationships[pairKey(a, b)] = &models.Relationship{
		ID:            e.newID(),
		CivilizationA: a,
		CivilizationB: b,
		Status:        models.StatusWar,
		EstablishedBy: declarer.ID,
		EstablishedAt: e.now().UTC(),
	}
	e.mu.Unlock()

	// Only successful declarations start the cooldown
	e.cooldowns.Record(ctx, founderID, cooldown.WarDeclaration)

	slog.InfoContext(ctx, "War declared", "declarer_id", declarer.ID, "target_id", target.ID)

	evts = append(evts,
		events.Event{Topic: events.WarDeclared, CivilizationID: declarer.ID, OtherID: target.ID, Status: string(models.StatusWar)},
		events.Event{Topic: events.RelationshipEstablished, CivilizationID: declarer.ID, OtherID: target.ID, Status: string(models.StatusWar)},
	)
	e.deliver(ctx, evts, []notice{{
		playerID: target.FounderID,
		message:  fmt.Sprintf("%s has declared war on %s", declarer.Name, target.Name),
	}})

	return result.Okf("%s declared war on %s", declarer.Name, target.Name), nil
}

// DeclarePeace ends a war. It is the only way out of war.
func (e *Engine) DeclarePeace(ctx context.Context, civID, otherID, founderID string) (result.Outcome, error) {
	if err := result.RequireIDs("civilization_id", civID, "other_id", otherID, "founder_id", founderID); err != nil {
		return result.Outcome{}, err
	}

	civ, other, outcome := e.resolveFoundedPair(civID, otherID)
	if !outcome.OK {
		return outcome, nil
	}
	if civ.FounderID != founderID {
		return result.Denied("Only the founder of %s may declare peace", civ.Name), nil
	}

	e.mu.Lock()
	rel, ok := e.liveRelationshipLocked(civ.ID, other.ID)
	if !ok || rel.Status != models.StatusWar {
		e.mu.Unlock()
		return result.Rejected("Peace can only be declared from war"), nil
	}
	evt := e.endRelationshipLocked(rel, "peace declared")
	e.mu.Unlock()

	slog.InfoContext(ctx, "Peace declared", "civilization_id", civ.ID, "other_id", other.ID)
	e.deliver(ctx, []events.Event{evt}, []notice{{
		playerID: other.FounderID,
		message:  fmt.Sprintf("%s has made peace with %s", civ.Name, other.Name),
	}})

	return result.Okf("%s and %s are at peace", civ.Name, other.Name), nil
}

// resolveFoundedPair is resolvePair without the membership bound check, so
// relationships can still be ended when a civilization is mid-cascade
func (e *Engine) resolveFoundedPair(civID, otherID string) (civModels.Civilization, civModels.Civilization, result.Outcome) {
	if civID == otherID {
		return civModels.Civilization{}, civModels.Civilization{}, result.Rejected("A civilization cannot conduct diplomacy with itself")
	}
	civ, ok := e.civilizations.Get(civID)
	if !ok {
		return civModels.Civilization{}, civModels.Civilization{}, result.Rejected("Civilization not found")
	}
	other, ok := e.civilizations.Get(otherID)
	if !ok {
		return civModels.Civilization{}, civModels.Civilization{}, result.Rejected("Target civilization not found")
	}
	return civ, other, result.Ok("")
}

// ScheduleBreak announces the end of a pact, which executes after BreakNotice
func (e *Engine) ScheduleBreak(ctx context.Context, civID, otherID, founderID string) (result.Outcome, error) {
	if err := result.RequireIDs("civilization_id", civID, "other_id", otherID, "founder_id", founderID); err != nil {
		return result.Outcome{}, err
	}

	civ, other, outcome := e.resolveFoundedPair(civID, otherID)
	if !outcome.OK {
		return outcome, nil
	}
	if civ.FounderID != founderID {
		return result.Denied("Only the founder of %s may break treaties", civ.Name), nil
	}

	e.mu.Lock()
	rel, ok := e.liveRelationshipLocked(civ.ID, other.ID)
	if !ok || !rel.Status.IsPact() {
		e.mu.Unlock()
		return result.Rejected("%s has no pact with %s", civ.Name, other.Name), nil
	}
	if rel.BreakScheduledAt != nil {
		at := *rel.BreakScheduledAt
		e.mu.Unlock()
		return result.Rejected("A break is already scheduled for %s", at.Format(time.RFC3339)), nil
	}
	at := e.now().UTC().Add(models.BreakNotice)
	rel.BreakScheduledAt = &at
	rel.BreakScheduledBy = civ.ID
	status := rel.Status
	e.mu.Unlock()

	slog.InfoContext(ctx, "Treaty break scheduled",
		"civilization_id", civ.ID,
		"other_id", other.ID,
		"status", status,
		"break_at", at)

	e.notifier.Notify(ctx, other.FounderID,
		fmt.Sprintf("%s will end its %s with %s in 24 hours", civ.Name, status.Label(), other.Name))

	return result.Okf("The %s with %s ends at %s", status.Label(), other.Name, at.Format(time.RFC3339)), nil
}

// CancelScheduledBreak withdraws a break scheduled by the same civilization
func (e *Engine) CancelScheduledBreak(ctx context.Context, civID, otherID, founderID string) (result.Outcome, error) {
	if err := result.RequireIDs("civilization_id", civID, "other_id", otherID, "founder_id", founderID); err != nil {
		return result.Outcome{}, err
	}

	civ, other, outcome := e.resolveFoundedPair(civID, otherID)
	if !outcome.OK {
		return outcome, nil
	}
	if civ.FounderID != founderID {
		return result.Denied("Only the founder of %s may cancel a treaty break", civ.Name), nil
	}

	e.mu.Lock()
	rel, ok := e.liveRelationshipLocked(civ.ID, other.ID)
	if !ok || rel.BreakScheduledAt == nil {
		e.mu.Unlock()
		return result.Rejected("No break is scheduled between %s and %s", civ.Name, other.Name), nil
	}
	if rel.BreakScheduledBy != civ.ID {
		e.mu.Unlock()
		return result.Denied("Only %s may cancel the break it scheduled", other.Name), nil
	}
	rel.BreakScheduledAt = nil
	rel.BreakScheduledBy = ""
	status := rel.Status
	e.mu.Unlock()

	e.notifier.Notify(ctx, other.FounderID,
		fmt.Sprintf("%s is keeping its %s with %s", civ.Name, status.Label(), other.Name))
	return result.Okf("The %s with %s continues", status.Label(), other.Name), nil
}

// RecordPvPViolation counts a kill committed against a pact partner. It is a
// no-op for any other status. The violation reaching MaxViolations ends the
// pact, and that kill still earns no favor.
func (e *Engine) RecordPvPViolation(ctx context.Context, attackerID, victimID string) (models.ViolationReport, error) {
	if err := result.RequireIDs("attacker_id", attackerID, "victim_id", victimID); err != nil {
		return models.ViolationReport{}, err
	}

	e.mu.Lock()
	rel, ok := e.liveRelationshipLocked(attackerID, victimID)
	if !ok || !rel.Status.IsPact() {
		multiplier := e.favorMultiplierLocked(attackerID, victimID)
		e.mu.Unlock()
		return models.ViolationReport{FavorMultiplier: multiplier}, nil
	}

	// Third strike ends the pact
	rel.Violations++
	report := models.ViolationReport{Count: rel.Violations}
	var evts []events.Event
	if rel.Violations >= models.MaxViolations {
		report.Terminated = true
		evts = append(evts, e.endRelationshipLocked(rel, "treaty violations"))
	}
	status := rel.Status
	e.mu.Unlock()

	var notices []notice
	attacker, aok := e.civilizations.Get(attackerID)
	victim, vok := e.civilizations.Get(victimID)
	if aok && vok {
		if report.Terminated {
			msg := fmt.Sprintf("The %s between %s and %s collapsed after %d violations", status.Label(), attacker.Name, victim.Name, report.Count)
			notices = append(notices, notice{attacker.FounderID, msg}, notice{victim.FounderID, msg})
		} else {
			notices = append(notices, notice{attacker.FounderID,
				fmt.Sprintf("Warning: %s violated its %s with %s (%d/%d)", attacker.Name, status.Label(), victim.Name, report.Count, models.MaxViolations)})
		}
	}

	slog.InfoContext(ctx, "Treaty violation recorded",
		"attacker_id", attackerID,
		"victim_id", victimID,
		"violations", report.Count,
		"terminated", report.Terminated)

	e.deliver(ctx, evts, notices)
	return report, nil
}

// GetFavorMultiplier returns the favor multiplier for a kill: the war bonus at
// war, 0 against a pact partner and 1.0 otherwise
func (e *Engine) GetFavorMultiplier(attackerID, victimID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.favorMultiplierLocked(attackerID, victimID)
}

func (e *Engine) favorMultiplierLocked(attackerID, victimID string) float64 {
	rel, ok := e.liveRelationshipLocked(attackerID, victimID)
	if !ok {
		return 1.0
	}
	switch rel.Status {
	case models.StatusWar:
		return e.cfg.WarFavorMultiplier
	case models.StatusNonAggressionPact, models.StatusAlliance:
		return 0
	default:
		return 1.0
	}
}

// GetStatus returns the pair's status; expired pacts read as neutral
func (e *Engine) GetStatus(civID, otherID string) models.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if rel, ok := e.liveRelationshipLocked(civID, otherID); ok {
		return rel.Status
	}
	return models.StatusNeutral
}

// GetRelationship returns a copy of the pair's live relationship
func (e *Engine) GetRelationship(civID, otherID string) (models.Relationship, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rel, ok := e.liveRelationshipLocked(civID, otherID)
	if !ok {
		return models.Relationship{}, false
	}
	return rel.Clone(), true
}

// RelationshipsFor returns every live relationship involving civID
func (e *Engine) RelationshipsFor(civID string) []models.Relationship {
	e.mu.Lock()
	now := e.now()
	list := make([]models.Relationship, 0)
	for _, rel := range e.relationships {
		if rel.Involves(civID) && !rel.IsExpired(now) {
			list = append(list, rel.Clone())
		}
	}
	e.mu.Unlock()

	slices.SortFunc(list, func(a, b models.Relationship) int { return a.EstablishedAt.Compare(b.EstablishedAt) })
	return list
}

// ProposalsFor returns live proposals sent or received by civID
func (e *Engine) ProposalsFor(civID string) []models.Proposal {
	e.mu.Lock()
	now := e.now()
	list := make([]models.Proposal, 0)
	for _, p := range e.proposals {
		if (p.ProposerID == civID || p.TargetID == civID) && !p.IsExpired(now) {
			list = append(list, *p)
		}
	}
	e.mu.Unlock()

	slices.SortFunc(list, func(a, b models.Proposal) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return list
}

// ActiveRelationshipCount counts the live pacts of civID. Wars are not counted.
func (e *Engine) ActiveRelationshipCount(civID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	count := 0
	for _, rel := range e.relationships {
		if rel.Involves(civID) && rel.Status.IsPact() && !rel.IsExpired(now) {
			count++
		}
	}
	return count
}

// ProcessExpirations purges expired proposals and pacts and executes due
// treaty breaks
func (e *Engine) ProcessExpirations(ctx context.Context) models.ExpirationReport {
	e.mu.Lock()
	now := e.now()
	var report models.ExpirationReport
	// Proposals first, then pacts and due breaks
	report.ExpiredProposals = e.removeProposalsLocked(func(p *models.Proposal) bool { return p.IsExpired(now) })

	var evts []events.Event
	for _, rel := range e.sortedRelationshipsLocked() {
		switch {
		case rel.IsExpired(now):
			evts = append(evts, e.endRelationshipLocked(rel, "expired"))
			report.ExpiredRelationships++
		case rel.BreakDue(now):
			evts = append(evts, e.endRelationshipLocked(rel, "scheduled break"))
			report.ExecutedBreaks++
		}
	}
	e.mu.Unlock()

	// Tell both founders
	var notices []notice
	for _, evt := range evts {
		for _, civID := range []string{evt.CivilizationID, evt.OtherID} {
			if civ, ok := e.civilizations.Get(civID); ok {
				notices = append(notices, notice{civ.FounderID,
					fmt.Sprintf("The %s involving %s has ended (%s)", models.Status(evt.Status).Label(), civ.Name, evt.Reason)})
			}
		}
	}

	if report.Total() > 0 {
		slog.InfoContext(ctx, "Diplomatic expirations processed",
			"expired_proposals", report.ExpiredProposals,
			"expired_relationships", report.ExpiredRelationships,
			"executed_breaks", report.ExecutedBreaks)
	}
	e.deliver(ctx, evts, notices)
	return report
}

func (e *Engine) sortedRelationshipsLocked() []*models.Relationship {
	list := make([]*models.Relationship, 0, len(e.relationships))
	for _, rel := range e.relationships {
		list = append(list, rel)
	}
	slices.SortFunc(list, func(a, b *models.Relationship) int { return strings.Compare(a.ID, b.ID) })
	return list
}

// HandleCivilizationDisbanded drops every relationship and proposal
// involving civID
func (e *Engine) HandleCivilizationDisbanded(ctx context.Context, civID string) {
	if civID == "" {
		return
	}

	e.mu.Lock()
	var evts []events.Event
	for _, rel := range e.sortedRelationshipsLocked() {
		if rel.Involves(civID) {
			evts = append(evts, e.endRelationshipLocked(rel, "civilization disbanded"))
		}
	}
	proposals := e.removeProposalsLocked(func(p *models.Proposal) bool {
		return p.ProposerID == civID || p.TargetID == civID
	})
	e.mu.Unlock()

	if len(evts) > 0 || proposals > 0 {
		slog.InfoContext(ctx, "Diplomacy cleared for disbanded civilization",
			"civilization_id", civID,
			"relationships", len(evts),
			"proposals", proposals)
	}
	e.deliver(ctx, evts, nil)
}

// Load restores relationships and proposals. Duplicate pairs and unknown
// statuses are dropped. On failure the engine starts empty and the error is
// returned.
func (e *Engine) Load(ctx context.Context) error {
	var snap models.Snapshot
	found, err := e.store.Load(ctx, SnapshotSlot, &snap)

	relationships := make(map[string]*models.Relationship)
	proposals := make(map[string]*models.Proposal)

	if err == nil && found {
		for i := range snap.Relationships {
			rel := snap.Relationships[i].Clone()
			if rel.CivilizationA == "" || rel.CivilizationA == rel.CivilizationB ||
				!rel.Status.Valid() || rel.Status == models.StatusNeutral {
				slog.WarnContext(ctx, "Skipping invalid relationship in snapshot", "relationship_id", rel.ID)
				continue
			}
			rel.CivilizationA, rel.CivilizationB = models.PairKey(rel.CivilizationA, rel.CivilizationB)
			key := pairKey(rel.CivilizationA, rel.CivilizationB)
			if _, dup := relationships[key]; dup {
				slog.WarnContext(ctx, "Dropping duplicate relationship in snapshot", "relationship_id", rel.ID)
				continue
			}
			relationships[key] = &rel
		}
		for i := range snap.Proposals {
			p := snap.Proposals[i]
			if p.ID == "" || !p.Status.IsPact() {
				continue
			}
			proposals[p.ID] = &p
		}
	}

	e.mu.Lock()
	e.relationships = relationships
	e.proposals = proposals
	e.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Failed to load diplomacy, starting empty", "error", err)
		return fmt.Errorf("failed to load diplomacy: %w", err)
	}
	slog.InfoContext(ctx, "Diplomacy loaded",
		"relationships", len(relationships),
		"proposals", len(proposals),
		"found", found)
	return nil
}

// Save writes every relationship and proposal to the snapshot slot
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	snap := models.Snapshot{
		Relationships: make([]models.Relationship, 0, len(e.relationships)),
		Proposals:     make([]models.Proposal, 0, len(e.proposals)),
	}
	for _, rel := range e.relationships {
		snap.Relationships = append(snap.Relationships, rel.Clone())
	}
	for _, p := range e.proposals {
		snap.Proposals = append(snap.Proposals, *p)
	}
	e.mu.Unlock()

	slices.SortFunc(snap.Relationships, func(a, b models.Relationship) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(snap.Proposals, func(a, b models.Proposal) int { return strings.Compare(a.ID, b.ID) })

	if err := e.store.Save(ctx, SnapshotSlot, snap); err != nil {
		slog.WarnContext(ctx, "Failed to save diplomacy", "error", err)
		return fmt.Errorf("failed to save diplomacy: %w", err)
	}
	return nil
}
