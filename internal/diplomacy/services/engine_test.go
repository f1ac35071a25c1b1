package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	civModels "go-pantheon/internal/civilization/models"
	civServices "go-pantheon/internal/civilization/services"
	"go-pantheon/internal/diplomacy/models"
	religionModels "go-pantheon/internal/religions/models"
	religionServices "go-pantheon/internal/religions/services"
	"go-pantheon/pkg/cooldown"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/result"
	"go-pantheon/pkg/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, playerID, message string) {
	m.Called(playerID, message)
}

type mockLedger struct {
	mock.Mock
	religions *religionServices.Directory
}

func (m *mockLedger) Get(id string) (religionModels.Religion, bool) {
	return m.religions.Get(id)
}

func (m *mockLedger) Credit(ctx context.Context, religionID string, amount int, reason string) error {
	return m.Called(religionID, amount, reason).Error(0)
}

type fixture struct {
	t         *testing.T
	now       time.Time
	bus       *events.Bus
	store     *snapshot.MemoryStore
	directory *religionServices.Directory
	registry  *civServices.Registry
	engine    *Engine
	ended     []events.Event
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		bus:   events.NewBus(),
		store: snapshot.NewMemoryStore(),
	}
	clock := func() time.Time { return f.now }
	seq := 0
	ids := func() string { seq++; return fmt.Sprintf("id-%03d", seq) }

	f.directory = religionServices.NewDirectory(f.store, f.bus,
		religionServices.WithClock(clock), religionServices.WithIDGenerator(ids))
	f.registry = civServices.NewRegistry(f.directory, f.store, f.bus,
		civServices.WithClock(clock), civServices.WithIDGenerator(ids))
	f.registry.Wire(f.bus)

	opts = append([]Option{WithClock(clock), WithIDGenerator(ids)}, opts...)
	f.engine = NewEngine(f.registry, f.directory, cooldown.NewMemoryTracker(nil, clock), f.store, f.bus, opts...)
	f.engine.Wire(f.bus)

	f.bus.Subscribe(events.RelationshipEnded, func(_ context.Context, e events.Event) { f.ended = append(f.ended, e) })
	t.Cleanup(func() {
		f.engine.Close()
		f.registry.Close()
	})
	return f
}

// civilization founds a one-religion civilization led by founder with the
// given religion prestige
func (f *fixture) civilization(name, founder string, deity religionModels.DeityDomain, prestige int) civModels.Civilization {
	f.t.Helper()
	ctx := context.Background()
	religion, outcome, err := f.directory.Create(ctx, religionServices.CreateInput{Name: name + " Faith", LeaderID: founder, Deity: deity})
	require.NoError(f.t, err)
	require.True(f.t, outcome.OK, outcome.Message)
	if prestige != 0 {
		require.NoError(f.t, f.directory.Credit(ctx, religion.ID, prestige, "seed"))
	}
	civ, outcome, err := f.registry.Create(ctx, civServices.CreateInput{Name: name, FounderID: founder, FounderReligionID: religion.ID})
	require.NoError(f.t, err)
	require.True(f.t, outcome.OK, outcome.Message)
	return civ
}

func (f *fixture) propose(from, to civModels.Civilization, status models.Status, duration time.Duration) (models.Proposal, result.Outcome) {
	f.t.Helper()
	p, outcome, err := f.engine.ProposeRelationship(context.Background(), ProposeInput{
		ProposerID: from.ID,
		TargetID:   to.ID,
		Status:     status,
		FounderID:  from.FounderID,
		Duration:   duration,
	})
	require.NoError(f.t, err)
	return p, outcome
}

func (f *fixture) form(from, to civModels.Civilization, status models.Status) {
	f.t.Helper()
	p, outcome := f.propose(from, to, status, 0)
	require.True(f.t, outcome.OK, outcome.Message)
	outcome, err := f.engine.AcceptProposal(context.Background(), p.ID, to.FounderID)
	require.NoError(f.t, err)
	require.True(f.t, outcome.OK, outcome.Message)
}

func (f *fixture) prestige(religionID string) int {
	r, ok := f.directory.Get(religionID)
	require.True(f.t, ok)
	return r.Prestige
}

func TestProposalRejectedBelowRank(t *testing.T) {
	f := newFixture(t)
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 0)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	_, outcome := f.propose(a, b, models.StatusNonAggressionPact, 0)

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "requires a religion of rank Established")
	assert.Empty(t, f.engine.ProposalsFor(a.ID))
	assert.Empty(t, f.engine.ProposalsFor(b.ID))
}

func TestRankGateAcceptsAnyMemberOfEitherSide(t *testing.T) {
	f := newFixture(t)
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 0)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 500)

	_, outcome := f.propose(a, b, models.StatusNonAggressionPact, 0)
	assert.True(t, outcome.OK, outcome.Message)

	c := f.civilization("Citadel", "fc", religionModels.DomainStone, 500)
	_, outcome = f.propose(a, c, models.StatusAlliance, 0)
	assert.False(t, outcome.OK, "an alliance needs Renowned")
}

func TestAcceptProposalFormsPact(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return()
	f := newFixture(t, WithNotifier(notifier))
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	p, outcome := f.propose(a, b, models.StatusNonAggressionPact, 0)
	require.True(t, outcome.OK)
	notifier.AssertCalled(t, "Notify", "fb", "Aurora proposes a non-aggression pact with Bastion")

	outcome, err := f.engine.AcceptProposal(ctx, p.ID, "fa")
	require.NoError(t, err)
	assert.True(t, outcome.Forbidden, "only the target's founder may accept")

	outcome, err = f.engine.AcceptProposal(ctx, p.ID, "fb")
	require.NoError(t, err)
	require.True(t, outcome.OK, outcome.Message)

	rel, ok := f.engine.GetRelationship(a.ID, b.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusNonAggressionPact, rel.Status)
	require.NotNil(t, rel.ExpiresAt)
	assert.Equal(t, f.now.Add(models.DefaultPactDuration), *rel.ExpiresAt)
	assert.Equal(t, a.ID, rel.EstablishedBy)

	assert.Empty(t, f.engine.ProposalsFor(a.ID))
	assert.Len(t, f.engine.RelationshipsFor(a.ID), 1)
	assert.Len(t, f.engine.RelationshipsFor(b.ID), 1)
	assert.Equal(t, 1, f.engine.ActiveRelationshipCount(a.ID))

	assert.Equal(t, 525, f.prestige(a.FounderReligionID))
	assert.Equal(t, 25, f.prestige(b.FounderReligionID))
	notifier.AssertCalled(t, "Notify", "fa", "Bastion accepted your non-aggression pact")
}

func TestAllianceHasNoExpiry(t *testing.T) {
	f := newFixture(t)
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	f.form(a, b, models.StatusAlliance)

	rel, ok := f.engine.GetRelationship(b.ID, a.ID)
	require.True(t, ok)
	assert.Nil(t, rel.ExpiresAt)

	f.now = f.now.Add(365 * 24 * time.Hour)
	assert.Equal(t, models.StatusAlliance, f.engine.GetStatus(a.ID, b.ID))
}

func TestLedgerFailureDoesNotUndoRelationship(t *testing.T) {
	f := newFixture(t)
	ledger := &mockLedger{religions: f.directory}
	ledger.On("Credit", mock.Anything, 25, "formed non-aggression pact").Return(errors.New("ledger offline"))
	f.engine.religions = ledger

	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)
	f.form(a, b, models.StatusNonAggressionPact)

	assert.Equal(t, models.StatusNonAggressionPact, f.engine.GetStatus(a.ID, b.ID))
	ledger.AssertNumberOfCalls(t, "Credit", 2)
	ledger.AssertCalled(t, "Credit", a.FounderReligionID, 25, "formed non-aggression pact")
	ledger.AssertCalled(t, "Credit", b.FounderReligionID, 25, "formed non-aggression pact")
}

func TestProposalValidation(t *testing.T) {
	f := newFixture(t)
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     ProposeInput
		message   string
		forbidden bool
	}{
		{"war is declared", ProposeInput{ProposerID: a.ID, TargetID: b.ID, Status: models.StatusWar, FounderID: "fa"}, "declare it instead", false},
		{"neutral", ProposeInput{ProposerID: a.ID, TargetID: b.ID, Status: models.StatusNeutral, FounderID: "fa"}, "Cannot propose", false},
		{"self", ProposeInput{ProposerID: a.ID, TargetID: a.ID, Status: models.StatusAlliance, FounderID: "fa"}, "itself", false},
		{"unknown target", ProposeInput{ProposerID: a.ID, TargetID: "missing", Status: models.StatusAlliance, FounderID: "fa"}, "not found", false},
		{"not founder", ProposeInput{ProposerID: a.ID, TargetID: b.ID, Status: models.StatusAlliance, FounderID: "fb"}, "Only the founder", true},
		{"short pact", ProposeInput{ProposerID: a.ID, TargetID: b.ID, Status: models.StatusNonAggressionPact, FounderID: "fa", Duration: time.Minute}, "between 1 hour and 30 days", false},
		{"long pact", ProposeInput{ProposerID: a.ID, TargetID: b.ID, Status: models.StatusNonAggressionPact, FounderID: "fa", Duration: 31 * 24 * time.Hour}, "between 1 hour and 30 days", false},
		{"alliance duration", ProposeInput{ProposerID: a.ID, TargetID: b.ID, Status: models.StatusAlliance, FounderID: "fa", Duration: time.Hour}, "Only a non-aggression pact", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, outcome, err := f.engine.ProposeRelationship(ctx, tt.input)
			require.NoError(t, err)
			assert.False(t, outcome.OK)
			assert.Equal(t, tt.forbidden, outcome.Forbidden)
			assert.Contains(t, outcome.Message, tt.message)
		})
	}

	_, _, err := f.engine.ProposeRelationship(ctx, ProposeInput{ProposerID: a.ID, Status: models.StatusAlliance, FounderID: "fa"})
	assert.ErrorIs(t, err, result.ErrInvalidArgument)
}

func TestProposalCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	p, outcome := f.propose(a, b, models.StatusNonAggressionPact, 0)
	require.True(t, outcome.OK)
	_, err := f.engine.DeclineProposal(ctx, p.ID, "fb")
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Second)
	_, outcome = f.propose(a, b, models.StatusNonAggressionPact, 0)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "You must wait 20 seconds")

	f.now = f.now.Add(21 * time.Second)
	_, outcome = f.propose(a, b, models.StatusNonAggressionPact, 0)
	assert.True(t, outcome.OK, outcome.Message)
}

func TestOneRelationshipPerPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 1500)

	p, outcome := f.propose(a, b, models.StatusNonAggressionPact, 0)
	require.True(t, outcome.OK)
	_, outcome = f.propose(b, a, models.StatusAlliance, 0)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "already pending")

	_, err := f.engine.AcceptProposal(ctx, p.ID, "fb")
	require.NoError(t, err)

	f.now = f.now.Add(time.Minute)
	_, outcome = f.propose(b, a, models.StatusAlliance, 0)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "already have a non-aggression pact")

	outcome, err = f.engine.DeclareWar(ctx, b.ID, a.ID, "fb")
	require.NoError(t, err)
	require.True(t, outcome.OK, outcome.Message)

	rels := f.engine.RelationshipsFor(a.ID)
	require.Len(t, rels, 1)
	assert.Equal(t, models.StatusWar, rels[0].Status)
	assert.Nil(t, rels[0].ExpiresAt)
	assert.Equal(t, 1.5, f.engine.GetFavorMultiplier(a.ID, b.ID))
	assert.Equal(t, 0, f.engine.ActiveRelationshipCount(a.ID))

	require.Len(t, f.ended, 1)
	assert.Equal(t, "war declared", f.ended[0].Reason)
}

func TestDeclareWarClearsProposals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	_, outcome := f.propose(a, b, models.StatusNonAggressionPact, 0)
	require.True(t, outcome.OK)

	outcome, err := f.engine.DeclareWar(ctx, b.ID, a.ID, "fa")
	require.NoError(t, err)
	assert.True(t, outcome.Forbidden)

	outcome, err = f.engine.DeclareWar(ctx, b.ID, a.ID, "fb")
	require.NoError(t, err)
	require.True(t, outcome.OK)
	assert.Empty(t, f.engine.ProposalsFor(a.ID))

	outcome, _ = f.engine.DeclareWar(ctx, a.ID, b.ID, "fa")
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "already at war")
}

func TestPeaceOnlyFromWar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	outcome, err := f.engine.DeclarePeace(ctx, a.ID, b.ID, "fa")
	require.NoError(t, err)
	assert.Contains(t, outcome.Message, "only be declared from war")

	f.form(a, b, models.StatusNonAggressionPact)
	outcome, _ = f.engine.DeclarePeace(ctx, a.ID, b.ID, "fa")
	assert.False(t, outcome.OK)

	f.now = f.now.Add(time.Minute)
	outcome, _ = f.engine.DeclareWar(ctx, a.ID, b.ID, "fa")
	require.True(t, outcome.OK)

	outcome, _ = f.engine.DeclarePeace(ctx, b.ID, a.ID, "fa")
	assert.True(t, outcome.Forbidden)

	outcome, err = f.engine.DeclarePeace(ctx, b.ID, a.ID, "fb")
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.Equal(t, models.StatusNeutral, f.engine.GetStatus(a.ID, b.ID))

	outcome, _ = f.engine.DeclareWar(ctx, a.ID, b.ID, "fa")
	assert.False(t, outcome.OK, "war declarations are throttled")
	assert.Contains(t, outcome.Message, "war declaration")
}

func TestThreeViolationsEndAlliance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)
	f.form(a, b, models.StatusAlliance)

	assert.Equal(t, 0.0, f.engine.GetFavorMultiplier(a.ID, b.ID))

	for i := 1; i < models.MaxViolations; i++ {
		report, err := f.engine.RecordPvPViolation(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, i, report.Count)
		assert.False(t, report.Terminated)
		assert.Equal(t, 0.0, report.FavorMultiplier)
	}

	report, err := f.engine.RecordPvPViolation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaxViolations, report.Count)
	assert.True(t, report.Terminated)
	assert.Equal(t, 0.0, report.FavorMultiplier, "the terminating kill earns nothing")

	assert.Equal(t, 1.0, f.engine.GetFavorMultiplier(a.ID, b.ID))
	assert.Equal(t, models.StatusNeutral, f.engine.GetStatus(a.ID, b.ID))
	require.Len(t, f.ended, 1)
	assert.Equal(t, "treaty violations", f.ended[0].Reason)
}

func TestViolationOutsidePactIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 0)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	report, err := f.engine.RecordPvPViolation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ViolationReport{FavorMultiplier: 1.0}, report)

	_, _ = f.engine.DeclareWar(ctx, a.ID, b.ID, "fa")
	report, err = f.engine.RecordPvPViolation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Count)
	assert.Equal(t, 1.5, report.FavorMultiplier)

	_, err = f.engine.RecordPvPViolation(ctx, "", a.ID)
	assert.ErrorIs(t, err, result.ErrInvalidArgument)
}

func TestProposalExpiry(t *testing.T) {
	f := newFixture(t)
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	p, _ := f.propose(a, b, models.StatusNonAggressionPact, 0)
	f.now = f.now.Add(models.ProposalLifetime)

	outcome, err := f.engine.AcceptProposal(context.Background(), p.ID, "fb")
	require.NoError(t, err)
	assert.Contains(t, outcome.Message, "expired")
	assert.Equal(t, models.StatusNeutral, f.engine.GetStatus(a.ID, b.ID))
}

func TestAcceptRechecksRank(t *testing.T) {
	f := newFixture(t)
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	p, _ := f.propose(a, b, models.StatusNonAggressionPact, 0)
	require.NoError(t, f.directory.Credit(context.Background(), a.FounderReligionID, -100, "desecration"))

	outcome, err := f.engine.AcceptProposal(context.Background(), p.ID, "fb")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "requires a religion of rank")
}

func TestPactExpiresAndMaintenanceRemovesIt(t *testing.T) {
	f := newFixture(t)
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	p, outcome := f.propose(a, b, models.StatusNonAggressionPact, 2*time.Hour)
	require.True(t, outcome.OK, outcome.Message)
	_, err := f.engine.AcceptProposal(context.Background(), p.ID, "fb")
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	assert.Equal(t, models.StatusNeutral, f.engine.GetStatus(a.ID, b.ID), "expired pacts read as neutral")
	assert.Equal(t, 1.0, f.engine.GetFavorMultiplier(a.ID, b.ID))

	report := f.engine.ProcessExpirations(context.Background())
	assert.Equal(t, models.ExpirationReport{ExpiredRelationships: 1}, report)
	require.Len(t, f.ended, 1)
	assert.Equal(t, "expired", f.ended[0].Reason)
}

func TestReplacingExpiredPactPublishesEnd(t *testing.T) {
	t.Run("accepting a new proposal", func(t *testing.T) {
		f := newFixture(t)
		a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
		b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

		p, outcome := f.propose(a, b, models.StatusNonAggressionPact, 2*time.Hour)
		require.True(t, outcome.OK, outcome.Message)
		_, err := f.engine.AcceptProposal(context.Background(), p.ID, "fb")
		require.NoError(t, err)

		f.now = f.now.Add(3 * time.Hour)
		f.form(a, b, models.StatusAlliance)

		require.Len(t, f.ended, 1)
		assert.Equal(t, "expired", f.ended[0].Reason)
		assert.Equal(t, string(models.StatusNonAggressionPact), f.ended[0].Status)
		assert.Equal(t, models.StatusAlliance, f.engine.GetStatus(a.ID, b.ID))
		assert.Zero(t, f.engine.ProcessExpirations(context.Background()).ExpiredRelationships)
	})

	t.Run("declaring war", func(t *testing.T) {
		f := newFixture(t)
		a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 500)
		b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

		p, outcome := f.propose(a, b, models.StatusNonAggressionPact, 2*time.Hour)
		require.True(t, outcome.OK, outcome.Message)
		_, err := f.engine.AcceptProposal(context.Background(), p.ID, "fb")
		require.NoError(t, err)

		f.now = f.now.Add(3 * time.Hour)
		outcome, err = f.engine.DeclareWar(context.Background(), b.ID, a.ID, "fb")
		require.NoError(t, err)
		require.True(t, outcome.OK, outcome.Message)

		require.Len(t, f.ended, 1)
		assert.Equal(t, "expired", f.ended[0].Reason)
		assert.Equal(t, models.StatusWar, f.engine.GetStatus(a.ID, b.ID))
	})
}

func TestScheduledBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)
	f.form(a, b, models.StatusAlliance)

	outcome, err := f.engine.ScheduleBreak(ctx, a.ID, b.ID, "fb")
	require.NoError(t, err)
	assert.True(t, outcome.Forbidden)

	outcome, err = f.engine.ScheduleBreak(ctx, a.ID, b.ID, "fa")
	require.NoError(t, err)
	require.True(t, outcome.OK)

	outcome, _ = f.engine.ScheduleBreak(ctx, a.ID, b.ID, "fa")
	assert.Contains(t, outcome.Message, "already scheduled")

	outcome, _ = f.engine.CancelScheduledBreak(ctx, b.ID, a.ID, "fb")
	assert.True(t, outcome.Forbidden, "only the scheduling side may cancel")

	outcome, _ = f.engine.CancelScheduledBreak(ctx, a.ID, b.ID, "fa")
	require.True(t, outcome.OK)
	rel, _ := f.engine.GetRelationship(a.ID, b.ID)
	assert.Nil(t, rel.BreakScheduledAt)

	_, _ = f.engine.ScheduleBreak(ctx, b.ID, a.ID, "fb")
	f.now = f.now.Add(models.BreakNotice - time.Second)
	assert.Equal(t, 0, f.engine.ProcessExpirations(ctx).Total())
	assert.Equal(t, models.StatusAlliance, f.engine.GetStatus(a.ID, b.ID))

	f.now = f.now.Add(time.Second)
	report := f.engine.ProcessExpirations(ctx)
	assert.Equal(t, 1, report.ExecutedBreaks)
	assert.Equal(t, models.StatusNeutral, f.engine.GetStatus(a.ID, b.ID))
}

func TestScheduleBreakRequiresPact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 0)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)

	outcome, _ := f.engine.ScheduleBreak(ctx, a.ID, b.ID, "fa")
	assert.Contains(t, outcome.Message, "no pact")

	_, _ = f.engine.DeclareWar(ctx, a.ID, b.ID, "fa")
	outcome, _ = f.engine.ScheduleBreak(ctx, a.ID, b.ID, "fa")
	assert.False(t, outcome.OK)
}

func TestDisbandClearsDiplomacy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)
	c := f.civilization("Citadel", "fc", religionModels.DomainStone, 0)
	f.form(a, b, models.StatusAlliance)
	_, outcome := f.propose(a, c, models.StatusNonAggressionPact, 0)
	require.False(t, outcome.OK, "cooldown from the first proposal")
	f.now = f.now.Add(time.Minute)
	_, outcome = f.propose(a, c, models.StatusNonAggressionPact, 0)
	require.True(t, outcome.OK, outcome.Message)

	outcome, err := f.registry.Disband(ctx, a.ID, "fa")
	require.NoError(t, err)
	require.True(t, outcome.OK)

	assert.Empty(t, f.engine.RelationshipsFor(b.ID))
	assert.Empty(t, f.engine.ProposalsFor(c.ID))
	require.Len(t, f.ended, 1)
	assert.Equal(t, "civilization disbanded", f.ended[0].Reason)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.civilization("Aurora", "fa", religionModels.DomainCraft, 1500)
	b := f.civilization("Bastion", "fb", religionModels.DomainWild, 0)
	c := f.civilization("Citadel", "fc", religionModels.DomainStone, 0)
	f.form(a, b, models.StatusAlliance)
	_, _ = f.engine.RecordPvPViolation(ctx, a.ID, b.ID)
	_, outcome := f.propose(c, a, models.StatusNonAggressionPact, 0)
	require.True(t, outcome.OK, outcome.Message)

	require.NoError(t, f.engine.Save(ctx))

	restored := NewEngine(f.registry, f.directory, nil, f.store, nil, WithClock(func() time.Time { return f.now }))
	require.NoError(t, restored.Load(ctx))

	rel, ok := restored.GetRelationship(a.ID, b.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusAlliance, rel.Status)
	assert.Equal(t, 1, rel.Violations)
	assert.Len(t, restored.ProposalsFor(c.ID), 1)
}

func TestLoadDropsDuplicatePairs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, SnapshotSlot, models.Snapshot{
		Relationships: []models.Relationship{
			{ID: "r1", CivilizationA: "b", CivilizationB: "a", Status: models.StatusWar},
			{ID: "r2", CivilizationA: "a", CivilizationB: "b", Status: models.StatusAlliance},
			{ID: "r3", CivilizationA: "a", CivilizationB: "c", Status: models.StatusNeutral},
		},
	}))

	require.NoError(t, f.engine.Load(ctx))

	assert.Equal(t, models.StatusWar, f.engine.GetStatus("a", "b"))
	assert.Equal(t, models.StatusNeutral, f.engine.GetStatus("a", "c"))
	rel, ok := f.engine.GetRelationship("b", "a")
	require.True(t, ok)
	assert.Equal(t, "a", rel.CivilizationA)
}

func TestLoadCorruptSnapshotStartsEmpty(t *testing.T) {
	f := newFixture(t)
	f.store.Put(SnapshotSlot, []byte("{not json"))

	err := f.engine.Load(context.Background())
	assert.Error(t, err)
	assert.Empty(t, f.engine.RelationshipsFor("a"))
}
