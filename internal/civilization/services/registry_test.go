package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"go-pantheon/internal/civilization/models"
	religionModels "go-pantheon/internal/religions/models"
	religionServices "go-pantheon/internal/religions/services"
	"go-pantheon/pkg/events"
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

type fixture struct {
	t         *testing.T
	now       time.Time
	bus       *events.Bus
	store     *snapshot.MemoryStore
	directory *religionServices.Directory
	registry  *Registry
	published []events.Event
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		now:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		bus:   events.NewBus(),
		store: snapshot.NewMemoryStore(),
	}
	clock := func() time.Time { return f.now }
	seq := 0
	ids := func() string { seq++; return fmt.Sprintf("id-%03d", seq) }

	f.directory = religionServices.NewDirectory(f.store, f.bus,
		religionServices.WithClock(clock), religionServices.WithIDGenerator(ids))
	opts = append([]Option{WithClock(clock), WithIDGenerator(ids)}, opts...)
	f.registry = NewRegistry(f.directory, f.store, f.bus, opts...)
	f.registry.Wire(f.bus)
	t.Cleanup(f.registry.Close)

	for _, topic := range events.AllTopics {
		f.bus.Subscribe(topic, func(_ context.Context, e events.Event) { f.published = append(f.published, e) })
	}
	return f
}

func (f *fixture) religion(name, leader string, deity religionModels.DeityDomain) religionModels.Religion {
	f.t.Helper()
	r, outcome, err := f.directory.Create(context.Background(), religionServices.CreateInput{Name: name, LeaderID: leader, Deity: deity})
	require.NoError(f.t, err)
	require.True(f.t, outcome.OK, outcome.Message)
	return r
}

func (f *fixture) civilization(name string, founder religionModels.Religion) models.Civilization {
	f.t.Helper()
	civ, outcome, err := f.registry.Create(context.Background(), CreateInput{
		Name:              name,
		FounderID:         founder.LeaderID,
		FounderReligionID: founder.ID,
	})
	require.NoError(f.t, err)
	require.True(f.t, outcome.OK, outcome.Message)
	return civ
}

func (f *fixture) join(civ models.Civilization, r religionModels.Religion) {
	f.t.Helper()
	invite, outcome, err := f.registry.Invite(context.Background(), civ.ID, r.ID, civ.FounderID)
	require.NoError(f.t, err)
	require.True(f.t, outcome.OK, outcome.Message)
	outcome, err = f.registry.AcceptInvite(context.Background(), invite.ID, r.LeaderID)
	require.NoError(f.t, err)
	require.True(f.t, outcome.OK, outcome.Message)
}

func (f *fixture) topics() []events.Topic {
	topics := make([]events.Topic, 0, len(f.published))
	for _, e := range f.published {
		topics = append(topics, e.Topic)
	}
	return topics
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	f.civilization("Aurora", g1)

	tests := []struct {
		name      string
		input     CreateInput
		message   string
		forbidden bool
	}{
		{"name too short", CreateInput{Name: "Au", FounderID: "druid", FounderReligionID: g2.ID}, "between 3 and 32", false},
		{"name too long", CreateInput{Name: "Aurora of the Thirty Three Chars!", FounderID: "druid", FounderReligionID: g2.ID}, "between 3 and 32", false},
		{"duplicate name", CreateInput{Name: "aurora", FounderID: "druid", FounderReligionID: g2.ID}, "already exists", false},
		{"long description", CreateInput{Name: "Verdant", FounderID: "druid", FounderReligionID: g2.ID, Description: string(make([]byte, 201))}, "at most 200", false},
		{"unknown religion", CreateInput{Name: "Verdant", FounderID: "druid", FounderReligionID: "missing"}, "not found", false},
		{"not the leader", CreateInput{Name: "Verdant", FounderID: "founder", FounderReligionID: g2.ID}, "Only the leader", true},
		{"already allied", CreateInput{Name: "Second Dawn", FounderID: "founder", FounderReligionID: g1.ID}, "already belongs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, outcome, err := f.registry.Create(context.Background(), tt.input)
			require.NoError(t, err)
			assert.False(t, outcome.OK)
			assert.Equal(t, tt.forbidden, outcome.Forbidden)
			assert.Contains(t, outcome.Message, tt.message)
		})
	}

	_, _, err := f.registry.Create(context.Background(), CreateInput{Name: "Verdant", FounderReligionID: g2.ID})
	assert.Error(t, err)
}

func TestCreatePersistsAndPublishes(t *testing.T) {
	f := newFixture(t)
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)

	civ := f.civilization("Aurora", g1)

	assert.Equal(t, 1, f.store.SaveCount())
	assert.Equal(t, []events.Topic{events.CivilizationMemberAdded}, f.topics())
	assert.Equal(t, civ.ID, f.published[0].CivilizationID)
	assert.Equal(t, 1, civ.MemberCount)
	assert.Equal(t, 0, civ.Rank)
}

func TestInviteRules(t *testing.T) {
	f := newFixture(t)
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	g3 := f.religion("Forge Cult", "smith", religionModels.DomainCraft)
	g4 := f.religion("Stonewardens", "mason", religionModels.DomainStone)
	civ := f.civilization("Aurora", g1)
	other := f.civilization("Bastion", g4)

	_, outcome, err := f.registry.Invite(context.Background(), civ.ID, g2.ID, "druid")
	require.NoError(t, err)
	assert.True(t, outcome.Forbidden)

	_, outcome, _ = f.registry.Invite(context.Background(), civ.ID, g3.ID, "founder")
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "already has a craft religion")

	_, outcome, _ = f.registry.Invite(context.Background(), civ.ID, g4.ID, "founder")
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "already belongs to Bastion")

	_, outcome, _ = f.registry.Invite(context.Background(), civ.ID, g1.ID, "founder")
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "already a member")

	_, outcome, _ = f.registry.Invite(context.Background(), civ.ID, g2.ID, "founder")
	require.True(t, outcome.OK)
	_, outcome, _ = f.registry.Invite(context.Background(), civ.ID, g2.ID, "founder")
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "pending invite")

	_, outcome, _ = f.registry.Invite(context.Background(), other.ID, g2.ID, "mason")
	assert.True(t, outcome.OK, "a religion may hold invites from several civilizations")
}

func TestInviteCapacity(t *testing.T) {
	f := newFixture(t)
	founder := f.religion("Order of Embers", "p0", religionModels.DomainCraft)
	civ := f.civilization("Aurora", founder)
	f.join(civ, f.religion("Grove Keepers", "p1", religionModels.DomainWild))
	f.join(civ, f.religion("Harvesters", "p2", religionModels.DomainHarvest))
	f.join(civ, f.religion("Stonewardens", "p3", religionModels.DomainStone))

	fifth := f.religion("Dawnbringers", "p4", religionModels.DomainLight)
	_, outcome, err := f.registry.Invite(context.Background(), civ.ID, fifth.ID, "p0")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "maximum of 4")

	got, _ := f.registry.Get(civ.ID)
	assert.Len(t, got.ReligionIDs, 4)
}

func TestInviteExpiryScenario(t *testing.T) {
	f := newFixture(t)
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	g3 := f.religion("Harvesters", "farmer", religionModels.DomainHarvest)
	civ := f.civilization("Aurora", g1)
	ctx := context.Background()

	invite, _, err := f.registry.Invite(ctx, civ.ID, g2.ID, "founder")
	require.NoError(t, err)
	f.now = f.now.Add(models.InviteLifetime - time.Minute)

	outcome, err := f.registry.AcceptInvite(ctx, invite.ID, "druid")
	require.NoError(t, err)
	require.True(t, outcome.OK, outcome.Message)

	got, _ := f.registry.Get(civ.ID)
	assert.Len(t, got.ReligionIDs, 2)

	late, _, err := f.registry.Invite(ctx, civ.ID, g3.ID, "founder")
	require.NoError(t, err)
	f.now = f.now.Add(models.InviteLifetime + time.Second)

	outcome, err = f.registry.AcceptInvite(ctx, late.ID, "farmer")
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "expired")

	_, exists := f.registry.GetInvite(late.ID)
	assert.False(t, exists)
	got, _ = f.registry.Get(civ.ID)
	assert.Len(t, got.ReligionIDs, 2)
}

func TestAcceptInvite(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return()
	f := newFixture(t, WithNotifier(notifier))
	ctx := context.Background()

	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	g3 := f.religion("Stonewardens", "mason", religionModels.DomainStone)
	_, err := f.directory.AddMember(ctx, g2.ID, "acolyte")
	require.NoError(t, err)
	civ := f.civilization("Aurora", g1)
	rival := f.civilization("Bastion", g3)

	invite, _, _ := f.registry.Invite(ctx, civ.ID, g2.ID, "founder")
	rivalInvite, _, _ := f.registry.Invite(ctx, rival.ID, g2.ID, "mason")

	outcome, err := f.registry.AcceptInvite(ctx, invite.ID, "acolyte")
	require.NoError(t, err)
	assert.True(t, outcome.Forbidden)

	outcome, err = f.registry.AcceptInvite(ctx, invite.ID, "druid")
	require.NoError(t, err)
	require.True(t, outcome.OK)

	got, _ := f.registry.Get(civ.ID)
	assert.Equal(t, []string{g1.ID, g2.ID}, got.ReligionIDs)
	assert.Equal(t, 3, got.MemberCount)

	_, ok := f.registry.GetInvite(rivalInvite.ID)
	assert.False(t, ok, "accepting purges the religion's other invites")
	assert.Empty(t, f.registry.InvitesForReligion(g2.ID))

	byReligion, ok := f.registry.GetByReligion(g2.ID)
	require.True(t, ok)
	assert.Equal(t, civ.ID, byReligion.ID)

	notifier.AssertCalled(t, "Notify", "druid", mock.Anything)
	notifier.AssertCalled(t, "Notify", "founder", "Grove Keepers has joined Aurora")
}

func TestDeclineInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	civ := f.civilization("Aurora", g1)

	invite, _, _ := f.registry.Invite(ctx, civ.ID, g2.ID, "founder")

	outcome, err := f.registry.DeclineInvite(ctx, invite.ID, "founder")
	require.NoError(t, err)
	assert.True(t, outcome.Forbidden)

	outcome, err = f.registry.DeclineInvite(ctx, invite.ID, "druid")
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.Empty(t, f.registry.InvitesForCivilization(civ.ID))

	outcome, _ = f.registry.AcceptInvite(ctx, invite.ID, "druid")
	assert.False(t, outcome.OK)
}

func TestLeaveAndKick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	g3 := f.religion("Harvesters", "farmer", religionModels.DomainHarvest)
	civ := f.civilization("Aurora", g1)
	f.join(civ, g2)
	f.join(civ, g3)

	outcome, err := f.registry.Leave(ctx, g1.ID, "founder")
	require.NoError(t, err)
	assert.Contains(t, outcome.Message, "disband it instead")

	outcome, _ = f.registry.Leave(ctx, g2.ID, "founder")
	assert.True(t, outcome.Forbidden)

	outcome, _ = f.registry.Leave(ctx, g2.ID, "druid")
	assert.True(t, outcome.OK)

	outcome, _ = f.registry.Kick(ctx, civ.ID, g3.ID, "farmer")
	assert.True(t, outcome.Forbidden)

	outcome, _ = f.registry.Kick(ctx, civ.ID, g1.ID, "founder")
	assert.False(t, outcome.OK)

	outcome, _ = f.registry.Kick(ctx, civ.ID, g3.ID, "founder")
	assert.True(t, outcome.OK)

	got, ok := f.registry.Get(civ.ID)
	require.True(t, ok)
	assert.Equal(t, []string{g1.ID}, got.ReligionIDs)

	_, allied := f.registry.GetByReligion(g2.ID)
	assert.False(t, allied)
}

func TestDisband(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	g3 := f.religion("Harvesters", "farmer", religionModels.DomainHarvest)
	civ := f.civilization("Aurora", g1)
	f.join(civ, g2)
	_, _, _ = f.registry.Invite(ctx, civ.ID, g3.ID, "founder")

	outcome, err := f.registry.Disband(ctx, civ.ID, "druid")
	require.NoError(t, err)
	assert.True(t, outcome.Forbidden)

	f.published = nil
	outcome, err = f.registry.Disband(ctx, civ.ID, "founder")
	require.NoError(t, err)
	assert.True(t, outcome.OK)

	_, ok := f.registry.Get(civ.ID)
	assert.False(t, ok)
	assert.Empty(t, f.registry.InvitesForReligion(g3.ID))
	assert.Equal(t, []events.Topic{events.CivilizationDisbanded}, f.topics())

	// former members are free to found again, and the name is free
	f.civilization("Aurora", g2)
}

func TestReligionDeletionCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	g3 := f.religion("Harvesters", "farmer", religionModels.DomainHarvest)
	civ := f.civilization("Aurora", g1)
	f.join(civ, g2)
	f.join(civ, g3)

	f.published = nil
	_, err := f.directory.Delete(ctx, g2.ID, "druid")
	require.NoError(t, err)

	got, ok := f.registry.Get(civ.ID)
	require.True(t, ok)
	assert.Equal(t, []string{g1.ID, g3.ID}, got.ReligionIDs)
	assert.ElementsMatch(t, []events.Topic{events.ReligionDeleted, events.CivilizationMemberRemoved}, f.topics())

	f.published = nil
	_, err = f.directory.Delete(ctx, g1.ID, "founder")
	require.NoError(t, err)

	_, ok = f.registry.Get(civ.ID)
	assert.False(t, ok, "losing the founding religion disbands the civilization")
	_, allied := f.registry.GetByReligion(g3.ID)
	assert.False(t, allied)
	assert.ElementsMatch(t, []events.Topic{
		events.ReligionDeleted,
		events.CivilizationMemberRemoved,
		events.CivilizationDisbanded,
	}, f.topics())
}

func TestReligionDeletionReturnsCleanupFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	f.civilization("Aurora", g1)

	// g2 points at a civilization the registry no longer holds
	f.registry.mu.Lock()
	f.registry.byReligion[g2.ID] = "ghost"
	f.registry.mu.Unlock()

	f.published = nil
	outcome, err := f.directory.Delete(ctx, g2.ID, "druid")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCivilizationNotFound)
	assert.False(t, outcome.OK)

	_, ok := f.directory.Get(g2.ID)
	assert.False(t, ok, "the religion is deleted even when cleanup fails")
	assert.Contains(t, f.topics(), events.ReligionDeleted)
	_, allied := f.registry.GetByReligion(g2.ID)
	assert.False(t, allied)
}

func TestCloseRemovesDeleteHook(t *testing.T) {
	f := newFixture(t)
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	civ := f.civilization("Aurora", g1)

	f.registry.Close()
	_, err := f.directory.Delete(context.Background(), g1.ID, "founder")
	require.NoError(t, err)

	_, ok := f.registry.Get(civ.ID)
	assert.True(t, ok, "a closed registry no longer reacts to deletions")
}

// vanishingDirectory answers the first lookup, then behaves as if the
// religion was deleted
type vanishingDirectory struct {
	*religionServices.Directory
	reads int
}

func (v *vanishingDirectory) Get(id string) (religionModels.Religion, bool) {
	v.reads++
	if v.reads > 1 {
		return religionModels.Religion{}, false
	}
	return v.Directory.Get(id)
}

func TestCreateRechecksReligionUnderLock(t *testing.T) {
	f := newFixture(t)
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)

	registry := NewRegistry(&vanishingDirectory{Directory: f.directory}, snapshot.NewMemoryStore(), nil)
	_, outcome, err := registry.Create(context.Background(), CreateInput{
		Name:              "Aurora",
		FounderID:         "founder",
		FounderReligionID: g1.ID,
	})
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Message, "not found")
	assert.Empty(t, registry.List())
}

func TestHandleReligionDeletedUnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.registry.HandleReligionDeleted(context.Background(), "never-allied"))
	assert.Error(t, f.registry.HandleReligionDeleted(context.Background(), ""))
}

func TestMemberCountFollowsDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	civ := f.civilization("Aurora", g1)

	_, err := f.directory.AddMember(ctx, g1.ID, "novice")
	require.NoError(t, err)

	got, _ := f.registry.Get(civ.ID)
	assert.Equal(t, 2, got.MemberCount)
}

func TestRecordMilestoneIsIdempotentAndPermanent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	civ := f.civilization("Aurora", g1)
	f.join(civ, g2)

	grant := models.Grant{MilestoneID: "first_alliance", RankReward: 1, UnlockBonusID: "shared_shrines"}
	applied, rank, err := f.registry.RecordMilestone(ctx, civ.ID, grant)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, rank)

	applied, rank, err = f.registry.RecordMilestone(ctx, civ.ID, grant)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, rank)

	_, _ = f.registry.Kick(ctx, civ.ID, g2.ID, "founder")

	got, _ := f.registry.Get(civ.ID)
	assert.Equal(t, []string{"first_alliance"}, got.CompletedMilestones)
	assert.Equal(t, []string{"shared_shrines"}, got.UnlockedBonuses)
	assert.Equal(t, 1, got.Rank)

	_, _, err = f.registry.RecordMilestone(ctx, "missing", grant)
	assert.ErrorIs(t, err, ErrCivilizationNotFound)
}

func TestRecordWarKill(t *testing.T) {
	f := newFixture(t)
	civ := f.civilization("Aurora", f.religion("Order of Embers", "founder", religionModels.DomainCraft))
	f.published = nil

	kills, err := f.registry.RecordWarKill(context.Background(), civ.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kills)
	assert.Equal(t, []events.Topic{events.CivilizationWarKill}, f.topics())
	assert.Equal(t, 1, f.published[0].Value)
}

func TestCleanupExpiredInvites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	civ := f.civilization("Aurora", f.religion("Order of Embers", "founder", religionModels.DomainCraft))
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	_, _, _ = f.registry.Invite(ctx, civ.ID, g2.ID, "founder")

	assert.Equal(t, 0, f.registry.CleanupExpiredInvites(ctx))
	f.now = f.now.Add(models.InviteLifetime)
	assert.Equal(t, 1, f.registry.CleanupExpiredInvites(ctx))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g1 := f.religion("Order of Embers", "founder", religionModels.DomainCraft)
	g2 := f.religion("Grove Keepers", "druid", religionModels.DomainWild)
	g3 := f.religion("Harvesters", "farmer", religionModels.DomainHarvest)
	civ := f.civilization("Aurora", g1)
	f.join(civ, g2)
	invite, _, _ := f.registry.Invite(ctx, civ.ID, g3.ID, "founder")
	_, _, _ = f.registry.RecordMilestone(ctx, civ.ID, models.Grant{MilestoneID: "m1", RankReward: 1})

	require.NoError(t, f.registry.Save(ctx))

	restored := NewRegistry(f.directory, f.store, nil, WithClock(func() time.Time { return f.now }))
	require.NoError(t, restored.Load(ctx))

	got, ok := restored.Get(civ.ID)
	require.True(t, ok)
	assert.Equal(t, []string{g1.ID, g2.ID}, got.ReligionIDs)
	assert.Equal(t, 1, got.Rank)
	assert.Equal(t, []string{"m1"}, got.CompletedMilestones)

	_, ok = restored.GetInvite(invite.ID)
	assert.True(t, ok)
	byReligion, ok := restored.GetByReligion(g2.ID)
	require.True(t, ok)
	assert.Equal(t, civ.ID, byReligion.ID)
}

func TestLoadDropsInvalidEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, SnapshotSlot, models.RegistrySnapshot{
		Civilizations: []models.Civilization{
			{ID: "c1", Name: "Aurora", FounderReligionID: "r1", ReligionIDs: []string{"r1", "r2"}},
			{ID: "c2", Name: "Bastion", FounderReligionID: "r3", ReligionIDs: []string{"r3", "r2"}},
			{ID: "c3", Name: "Empty", FounderReligionID: "r9", ReligionIDs: []string{}},
		},
		Invites: []models.Invite{
			{ID: "i1", CivilizationID: "c1", ReligionID: "r5"},
			{ID: "i2", CivilizationID: "c3", ReligionID: "r6"},
		},
	}))

	require.NoError(t, f.registry.Load(ctx))

	list := f.registry.List()
	require.Len(t, list, 2)
	c2, _ := f.registry.Get("c2")
	assert.Equal(t, []string{"r3"}, c2.ReligionIDs, "a religion is owned by at most one civilization")
	_, ok := f.registry.GetInvite("i2")
	assert.False(t, ok)
}

func TestLoadMissingSlotStartsEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Load(context.Background()))
	assert.Empty(t, f.registry.List())
}

// TestMembershipInvariants drives random operations and checks membership
// bounds, deity diversity and single ownership after each step.
func TestMembershipInvariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	var religions []religionModels.Religion
	for i := range 14 {
		domain := religionModels.DeityDomains[i%len(religionModels.DeityDomains)]
		religions = append(religions, f.religion(fmt.Sprintf("Religion %02d", i), fmt.Sprintf("leader-%02d", i), domain))
	}
	pick := func() religionModels.Religion { return religions[rng.Intn(len(religions))] }

	for step := range 400 {
		r := pick()
		civs := f.registry.List()
		switch rng.Intn(6) {
		case 0:
			_, _, _ = f.registry.Create(ctx, CreateInput{Name: fmt.Sprintf("Civ %03d", step), FounderID: r.LeaderID, FounderReligionID: r.ID})
		case 1, 2:
			if len(civs) > 0 {
				civ := civs[rng.Intn(len(civs))]
				invite, outcome, _ := f.registry.Invite(ctx, civ.ID, r.ID, civ.FounderID)
				if outcome.OK {
					_, _ = f.registry.AcceptInvite(ctx, invite.ID, r.LeaderID)
				}
			}
		case 3:
			_, _ = f.registry.Leave(ctx, r.ID, r.LeaderID)
		case 4:
			if len(civs) > 0 {
				civ := civs[rng.Intn(len(civs))]
				_, _ = f.registry.Kick(ctx, civ.ID, r.ID, civ.FounderID)
			}
		case 5:
			if len(civs) > 0 && rng.Intn(4) == 0 {
				civ := civs[rng.Intn(len(civs))]
				_, _ = f.registry.Disband(ctx, civ.ID, civ.FounderID)
			}
		}

		owners := map[string]string{}
		for _, civ := range f.registry.List() {
			require.True(t, civ.IsValid(), "step %d: civilization %s has %d religions", step, civ.ID, len(civ.ReligionIDs))
			domains := map[religionModels.DeityDomain]bool{}
			for _, religionID := range civ.ReligionIDs {
				require.Empty(t, owners[religionID], "step %d: religion %s owned twice", step, religionID)
				owners[religionID] = civ.ID
				religion, ok := f.directory.Get(religionID)
				require.True(t, ok)
				require.False(t, domains[religion.Deity], "step %d: duplicate domain in %s", step, civ.ID)
				domains[religion.Deity] = true
			}
		}
	}
}
