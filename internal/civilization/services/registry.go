package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go-pantheon/internal/civilization/models"
	religionModels "go-pantheon/internal/religions/models"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/notify"
	"go-pantheon/pkg/result"
	"go-pantheon/pkg/snapshot"

	"github.com/google/uuid"
)

// SnapshotSlot is the snapshot store slot holding civilizations and invites
const SnapshotSlot = "civilizations"

// ErrCivilizationNotFound is returned by mutators that require a live civilization
var ErrCivilizationNotFound = errors.New("civilization not found")

// ReligionDirectory is the subset of the religion directory the registry reads
type ReligionDirectory interface {
	Get(id string) (religionModels.Religion, bool)
}

// Registry owns every live civilization and pending invite. All state is
// guarded by mu; events are published after mu is released.
type Registry struct {
	mu            sync.Mutex
	civilizations map[string]*models.Civilization
	byReligion    map[string]string
	invites       map[string]*models.Invite

	religions ReligionDirectory
	store     snapshot.Store
	publisher events.Publisher
	notifier  notify.Notifier
	now       func() time.Time
	newID     func() string

	bus    *events.Bus
	subs   []events.Subscription
	unhook func()
}

// Option configures a Registry
type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

func WithNotifier(n notify.Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

func NewRegistry(religions ReligionDirectory, store snapshot.Store, publisher events.Publisher, opts ...Option) *Registry {
	if publisher == nil {
		publisher = events.Discard{}
	}
	r := &Registry{
		civilizations: make(map[string]*models.Civilization),
		byReligion:    make(map[string]string),
		invites:       make(map[string]*models.Invite),
		religions:     religions,
		store:         store,
		publisher:     publisher,
		notifier:      notify.Discard{},
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// deletionSource is implemented by directories that run cleanup hooks inside
// Delete and hand their errors back to the deleting caller
type deletionSource interface {
	OnDelete(hook func(ctx context.Context, religionID string) error) func()
}

// Wire subscribes the registry to religion directory events. Deletions are
// handled through the directory's delete hook when it has one, so a failed
// forced disband fails the delete itself.
func (r *Registry) Wire(bus *events.Bus) {
	r.bus = bus
	if source, ok := r.religions.(deletionSource); ok {
		r.unhook = source.OnDelete(r.HandleReligionDeleted)
	} else {
		r.subs = append(r.subs,
			bus.Subscribe(events.ReligionDeleted, func(ctx context.Context, e events.Event) {
				// no caller to return to; HandleReligionDeleted logs at Error
				_ = r.HandleReligionDeleted(ctx, e.ReligionID)
			}))
	}
	r.subs = append(r.subs,
		bus.Subscribe(events.ReligionMemberCountChanged, func(ctx context.Context, e events.Event) {
			r.RefreshMemberCount(ctx, e.ReligionID)
		}),
	)
}

// Close removes the subscriptions made by Wire
func (r *Registry) Close() {
	if r.bus != nil {
		r.bus.UnsubscribeAll(r.subs)
	}
	if r.unhook != nil {
		r.unhook()
	}
	r.subs = nil
	r.bus = nil
	r.unhook = nil
}

func (r *Registry) publish(ctx context.Context, evts []events.Event) {
	for _, e := range evts {
		r.publisher.Publish(ctx, e)
	}
}

// CreateInput holds the fields of a new civilization
type CreateInput struct {
	Name              string
	FounderID         string
	FounderReligionID string
	Icon              string
	Description       string
}

// Create founds a civilization with the founder's religion as its only member
func (r *Registry) Create(ctx context.Context, input CreateInput) (models.Civilization, result.Outcome, error) {
	if err := result.RequireIDs("founder_id", input.FounderID, "founder_religion_id", input.FounderReligionID); err != nil {
		return models.Civilization{}, result.Outcome{}, err
	}

	name := strings.TrimSpace(input.Name)
	if n := utf8.RuneCountInString(name); n < models.MinNameLength || n > models.MaxNameLength {
		return models.Civilization{}, result.Rejected("Civilization name must be between %d and %d characters",
			models.MinNameLength, models.MaxNameLength), nil
	}
	if utf8.RuneCountInString(input.Description) > models.MaxDescriptionLength {
		return models.Civilization{}, result.Rejected("Description must be at most %d characters", models.MaxDescriptionLength), nil
	}

	religion, ok := r.religions.Get(input.FounderReligionID)
	if !ok {
		return models.Civilization{}, result.Rejected("Religion not found"), nil
	}
	if religion.LeaderID != input.FounderID {
		return models.Civilization{}, result.Denied("Only the leader of %s may found a civilization with it", religion.Name), nil
	}

	r.mu.Lock()
	// A delete that raced the read above has already run its cleanup
	if _, ok := r.religions.Get(religion.ID); !ok {
		r.mu.Unlock()
		return models.Civilization{}, result.Rejected("Religion not found"), nil
	}
	if civID, allied := r.byReligion[religion.ID]; allied {
		civName := r.civilizationNameLocked(civID)
		r.mu.Unlock()
		return models.Civilization{}, result.Rejected("%s already belongs to %s", religion.Name, civName), nil
	}
	for _, existing := range r.civilizations {
		if strings.EqualFold(existing.Name, name) {
			r.mu.Unlock()
			return models.Civilization{}, result.Rejected("A civilization named %q already exists", name), nil
		}
	}

	civ := &models.Civilization{
		ID:                  r.newID(),
		Name:                name,
		FounderID:           input.FounderID,
		FounderReligionID:   religion.ID,
		ReligionIDs:         []string{religion.ID},
		MemberCount:         religion.MemberCount(),
		Icon:                input.Icon,
		Description:         input.Description,
		CompletedMilestones: []string{},
		UnlockedBonuses:     []string{},
		CreatedAt:           r.now().UTC(),
	}
	r.civilizations[civ.ID] = civ
	r.byReligion[religion.ID] = civ.ID
	r.removeInvitesLocked(func(i *models.Invite) bool { return i.ReligionID == religion.ID })
	created := civ.Clone()
	r.mu.Unlock()

	slog.InfoContext(ctx, "Civilization created",
		"civilization_id", created.ID,
		"name", created.Name,
		"founder_id", created.FounderID,
		"religion_id", religion.ID)

	// persisted right away so a crash before the next checkpoint keeps the founding
	_ = r.Save(ctx)

	r.publisher.Publish(ctx, events.Event{
		Topic:          events.CivilizationMemberAdded,
		CivilizationID: created.ID,
		ReligionID:     religion.ID,
	})

	return created, result.Okf("Civilization %s founded", created.Name), nil
}

// Invite offers religionID membership. Only the founder may invite.
func (r *Registry) Invite(ctx context.Context, civID, religionID, inviterID string) (models.Invite, result.Outcome, error) {
	if err := result.RequireIDs("civilization_id", civID, "religion_id", religionID, "inviter_id", inviterID); err != nil {
		return models.Invite{}, result.Outcome{}, err
	}

	target, ok := r.religions.Get(religionID)
	if !ok {
		return models.Invite{}, result.Rejected("Religion not found"), nil
	}

	r.mu.Lock()
	civ, ok := r.civilizations[civID]
	if !ok {
		r.mu.Unlock()
		return models.Invite{}, result.Rejected("Civilization not found"), nil
	}
	if civ.FounderID != inviterID {
		r.mu.Unlock()
		return models.Invite{}, result.Denied("Only the founder of %s may invite religions", civ.Name), nil
	}
	if outcome := r.admissionCheckLocked(civ, target); !outcome.OK {
		r.mu.Unlock()
		return models.Invite{}, outcome, nil
	}

	now := r.now().UTC()
	for _, existing := range r.invites {
		if existing.CivilizationID == civID && existing.ReligionID == religionID && !existing.IsExpired(now) {
			r.mu.Unlock()
			return models.Invite{}, result.Rejected("%s already has a pending invite to %s", target.Name, civ.Name), nil
		}
	}

	invite := &models.Invite{
		ID:             r.newID(),
		CivilizationID: civID,
		ReligionID:     religionID,
		InvitedBy:      inviterID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(models.InviteLifetime),
	}
	r.invites[invite.ID] = invite
	civName := civ.Name
	created := *invite
	r.mu.Unlock()

	slog.InfoContext(ctx, "Civilization invite created",
		"civilization_id", civID,
		"religion_id", religionID,
		"invite_id", created.ID)

	r.notifier.Notify(ctx, target.LeaderID,
		fmt.Sprintf("%s has been invited to join the civilization %s", target.Name, civName))

	return created, result.Okf("Invited %s to %s", target.Name, civName), nil
}

// admissionCheckLocked validates capacity, allegiance and deity diversity
// for adding religion to civ
func (r *Registry) admissionCheckLocked(civ *models.Civilization, religion religionModels.Religion) result.Outcome {
	if len(civ.ReligionIDs) >= models.MaxReligions {
		return result.Rejected("%s already has the maximum of %d religions", civ.Name, models.MaxReligions)
	}
	if civ.HasReligion(religion.ID) {
		return result.Rejected("%s is already a member of %s", religion.Name, civ.Name)
	}
	if otherID, allied := r.byReligion[religion.ID]; allied {
		return result.Rejected("%s already belongs to %s", religion.Name, r.civilizationNameLocked(otherID))
	}
	for _, memberID := range civ.ReligionIDs {
		member, ok := r.religions.Get(memberID)
		if ok && member.Deity == religion.Deity {
			return result.Rejected("%s already has a %s religion (%s)", civ.Name, religion.Deity, member.Name)
		}
	}
	return result.Ok("")
}

func (r *Registry) civilizationNameLocked(civID string) string {
	if civ, ok := r.civilizations[civID]; ok {
		return civ.Name
	}
	return "another civilization"
}

// AcceptInvite admits the invited religion. Only its leader may accept.
func (r *Registry) AcceptInvite(ctx context.Context, inviteID, playerID string) (result.Outcome, error) {
	if err := result.RequireIDs("invite_id", inviteID, "player_id", playerID); err != nil {
		return result.Outcome{}, err
	}

	r.mu.Lock()
	invite, religion, outcome := r.resolveInviteLocked(inviteID, playerID)
	if !outcome.OK {
		r.mu.Unlock()
		return outcome, nil
	}

	civ, ok := r.civilizations[invite.CivilizationID]
	if !ok {
		delete(r.invites, inviteID)
		r.mu.Unlock()
		return result.Rejected("That civilization no longer exists"), nil
	}
	if outcome := r.admissionCheckLocked(civ, religion); !outcome.OK {
		r.mu.Unlock()
		return outcome, nil
	}

	// Admit the religion and drop its other invites
	civ.ReligionIDs = append(civ.ReligionIDs, religion.ID)
	r.byReligion[religion.ID] = civ.ID
	r.removeInvitesLocked(func(i *models.Invite) bool { return i.ReligionID == religion.ID })
	r.recountLocked(civ)
	civID, civName, founderID := civ.ID, civ.Name, civ.FounderID
	members := len(civ.ReligionIDs)
	r.mu.Unlock()

	slog.InfoContext(ctx, "Religion joined civilization",
		"civilization_id", civID,
		"religion_id", religion.ID,
		"religions", members)

	r.publisher.Publish(ctx, events.Event{
		Topic:          events.CivilizationMemberAdded,
		CivilizationID: civID,
		ReligionID:     religion.ID,
	})
	r.notifier.Notify(ctx, founderID, fmt.Sprintf("%s has joined %s", religion.Name, civName))

	return result.Okf("%s joined %s", religion.Name, civName), nil
}

// DeclineInvite discards an invite. Only the invited religion's leader may decline.
func (r *Registry) DeclineInvite(ctx context.Context, inviteID, playerID string) (result.Outcome, error) {
	if err := result.RequireIDs("invite_id", inviteID, "player_id", playerID); err != nil {
		return result.Outcome{}, err
	}

	r.mu.Lock()
	invite, religion, outcome := r.resolveInviteLocked(inviteID, playerID)
	if !outcome.OK {
		r.mu.Unlock()
		return outcome, nil
	}
	delete(r.invites, inviteID)
	var founderID, civName string
	if civ, ok := r.civilizations[invite.CivilizationID]; ok {
		founderID, civName = civ.FounderID, civ.Name
	}
	r.mu.Unlock()

	if founderID != "" {
		r.notifier.Notify(ctx, founderID, fmt.Sprintf("%s declined the invitation to %s", religion.Name, civName))
	}
	return result.Okf("Invite from %s declined", civName), nil
}

// resolveInviteLocked finds a live invite the player may act on. Expired
// invites and invites for vanished religions are removed.
func (r *Registry) resolveInviteLocked(inviteID, playerID string) (models.Invite, religionModels.Religion, result.Outcome) {
	invite, ok := r.invites[inviteID]
	if !ok {
		return models.Invite{}, religionModels.Religion{}, result.Rejected("Invite not found")
	}
	religion, ok := r.religions.Get(invite.ReligionID)
	if !ok {
		delete(r.invites, inviteID)
		return models.Invite{}, religionModels.Religion{}, result.Rejected("The invited religion no longer exists")
	}
	if religion.LeaderID != playerID {
		return models.Invite{}, religionModels.Religion{}, result.Denied("Only the leader of %s may respond to this invite", religion.Name)
	}
	if invite.IsExpired(r.now()) {
		delete(r.invites, inviteID)
		return models.Invite{}, religionModels.Religion{}, result.Rejected("This invite has expired")
	}
	return *invite, religion, result.Ok("")
}

// Leave removes a religion from its civilization. Only the religion's leader
// may leave and the founding religion must disband instead.
func (r *Registry) Leave(ctx context.Context, religionID, requesterID string) (result.Outcome, error) {
	if err := result.RequireIDs("religion_id", religionID, "requester_id", requesterID); err != nil {
		return result.Outcome{}, err
	}

	religion, ok := r.religions.Get(religionID)
	if !ok {
		return result.Rejected("Religion not found"), nil
	}
	if religion.LeaderID != requesterID {
		return result.Denied("Only the leader of %s may leave its civilization", religion.Name), nil
	}

	r.mu.Lock()
	civID, ok := r.byReligion[religionID]
	if !ok {
		r.mu.Unlock()
		return result.Rejected("%s is not part of a civilization", religion.Name), nil
	}
	civ, ok := r.civilizations[civID]
	if !ok {
		delete(r.byReligion, religionID)
		r.mu.Unlock()
		err := fmt.Errorf("%w: religion %s references civilization %s", ErrCivilizationNotFound, religionID, civID)
		slog.ErrorContext(ctx, "Registry inconsistency while leaving civilization", "error", err)
		return result.Outcome{}, err
	}
	if civ.FounderReligionID == religionID {
		r.mu.Unlock()
		return result.Rejected("The founding religion cannot leave %s; disband it instead", civ.Name), nil
	}
	civName := civ.Name
	evts := r.removeMemberLocked(civ, religionID, "left")
	r.mu.Unlock()

	slog.InfoContext(ctx, "Religion left civilization", "civilization_id", civID, "religion_id", religionID)
	r.publish(ctx, evts)

	return result.Okf("%s left %s", religion.Name, civName), nil
}

// Kick removes a member religion. Only the founder may kick and the founding
// religion cannot be kicked.
func (r *Registry) Kick(ctx context.Context, civID, religionID, kickerID string) (result.Outcome, error) {
	if err := result.RequireIDs("civilization_id", civID, "religion_id", religionID, "kicker_id", kickerID); err != nil {
		return result.Outcome{}, err
	}

	r.mu.Lock()
	civ, ok := r.civilizations[civID]
	if !ok {
		r.mu.Unlock()
		return result.Rejected("Civilization not found"), nil
	}
	if civ.FounderID != kickerID {
		r.mu.Unlock()
		return result.Denied("Only the founder of %s may remove religions", civ.Name), nil
	}
	if religionID == civ.FounderReligionID {
		r.mu.Unlock()
		return result.Rejected("The founding religion cannot be removed from %s", civ.Name), nil
	}
	if !civ.HasReligion(religionID) {
		r.mu.Unlock()
		return result.Rejected("That religion is not a member of %s", civ.Name), nil
	}
	civName := civ.Name
	evts := r.removeMemberLocked(civ, religionID, "kicked")
	r.mu.Unlock()

	slog.InfoContext(ctx, "Religion removed from civilization", "civilization_id", civID, "religion_id", religionID)
	r.publish(ctx, evts)

	if religion, ok := r.religions.Get(religionID); ok {
		r.notifier.Notify(ctx, religion.LeaderID, fmt.Sprintf("%s has been removed from %s", religion.Name, civName))
	}
	return result.Okf("Religion removed from %s", civName), nil
}

// Disband dissolves a civilization. Only the founder may disband.
func (r *Registry) Disband(ctx context.Context, civID, requesterID string) (result.Outcome, error) {
	if err := result.RequireIDs("civilization_id", civID, "requester_id", requesterID); err != nil {
		return result.Outcome{}, err
	}

	r.mu.Lock()
	civ, ok := r.civilizations[civID]
	if !ok {
		r.mu.Unlock()
		return result.Rejected("Civilization not found"), nil
	}
	if civ.FounderID != requesterID {
		r.mu.Unlock()
		return result.Denied("Only the founder of %s may disband it", civ.Name), nil
	}
	members := slices.Clone(civ.ReligionIDs)
	civName := civ.Name
	evt := r.disbandLocked(civ, "disbanded by founder")
	r.mu.Unlock()

	slog.InfoContext(ctx, "Civilization disbanded", "civilization_id", civID, "reason", evt.Reason)
	r.publisher.Publish(ctx, evt)

	for _, religionID := range members {
		if religion, ok := r.religions.Get(religionID); ok && religion.LeaderID != requesterID {
			r.notifier.Notify(ctx, religion.LeaderID, fmt.Sprintf("%s has been disbanded", civName))
		}
	}
	return result.Okf("%s has been disbanded", civName), nil
}

// HandleReligionDeleted removes a deleted religion from its civilization and
// force-disbands the civilization when it lost its founder religion or its
// last member. Failures indicate corrupted registry state and are returned.
func (r *Registry) HandleReligionDeleted(ctx context.Context, religionID string) error {
	if err := result.RequireIDs("religion_id", religionID); err != nil {
		return err
	}

	r.mu.Lock()
	r.removeInvitesLocked(func(i *models.Invite) bool { return i.ReligionID == religionID })

	civID, ok := r.byReligion[religionID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	civ, ok := r.civilizations[civID]
	if !ok {
		delete(r.byReligion, religionID)
		r.mu.Unlock()
		err := fmt.Errorf("%w: religion %s references civilization %s", ErrCivilizationNotFound, religionID, civID)
		slog.ErrorContext(ctx, "Registry inconsistency while removing deleted religion", "error", err)
		return err
	}

	// Detach first; disband decides on what is left
	founderLost := civ.FounderReligionID == religionID
	civ.ReligionIDs = slices.DeleteFunc(civ.ReligionIDs, func(id string) bool { return id == religionID })
	delete(r.byReligion, religionID)
	evts := []events.Event{{
		Topic:          events.CivilizationMemberRemoved,
		CivilizationID: civID,
		ReligionID:     religionID,
		Reason:         "religion deleted",
	}}

	// System initiated, no permission checks
	var disbandErr error
	if founderLost || len(civ.ReligionIDs) < models.MinReligions {
		evt, err := r.forceDisbandLocked(civID, "founding religion deleted")
		if evt.Topic != "" {
			evts = append(evts, evt)
		}
		if err != nil {
			disbandErr = fmt.Errorf("failed to disband civilization %s after religion %s was deleted: %w", civID, religionID, err)
		}
	} else {
		r.recountLocked(civ)
	}
	r.mu.Unlock()

	r.publish(ctx, evts)

	if disbandErr != nil {
		slog.ErrorContext(ctx, "Forced civilization disband failed",
			"civilization_id", civID,
			"religion_id", religionID,
			"error", disbandErr)
		return disbandErr
	}
	slog.InfoContext(ctx, "Deleted religion removed from civilization",
		"civilization_id", civID,
		"religion_id", religionID,
		"disbanded", len(evts) > 1)
	return nil
}

// forceDisbandLocked disbands without permission checks and verifies that no
// religion still points at the civilization afterwards
func (r *Registry) forceDisbandLocked(civID, reason string) (events.Event, error) {
	civ, ok := r.civilizations[civID]
	if !ok {
		return events.Event{}, fmt.Errorf("%w: %s", ErrCivilizationNotFound, civID)
	}
	evt := r.disbandLocked(civ, reason)
	var dangling []string
	for religionID, owner := range r.byReligion {
		if owner == civID {
			delete(r.byReligion, religionID)
			dangling = append(dangling, religionID)
		}
	}
	if len(dangling) > 0 {
		return evt, fmt.Errorf("religions %v still referenced disbanded civilization %s", dangling, civID)
	}
	return evt, nil
}

// removeMemberLocked drops religionID from civ and disbands civ when it
// falls below the minimum membership
func (r *Registry) removeMemberLocked(civ *models.Civilization, religionID, reason string) []events.Event {
	civ.ReligionIDs = slices.DeleteFunc(civ.ReligionIDs, func(id string) bool { return id == religionID })
	delete(r.byReligion, religionID)

	evts := []events.Event{{
		Topic:          events.CivilizationMemberRemoved,
		CivilizationID: civ.ID,
		ReligionID:     religionID,
		Reason:         reason,
	}}
	if len(civ.ReligionIDs) < models.MinReligions {
		return append(evts, r.disbandLocked(civ, "no religions left"))
	}
	r.recountLocked(civ)
	return evts
}

// disbandLocked stamps, unindexes and removes civ and purges its invites
func (r *Registry) disbandLocked(civ *models.Civilization, reason string) events.Event {
	now := r.now().UTC()
	civ.DisbandedAt = &now
	// Release every member religion
	for _, religionID := range civ.ReligionIDs {
		delete(r.byReligion, religionID)
	}
	r.removeInvitesLocked(func(i *models.Invite) bool { return i.CivilizationID == civ.ID })
	delete(r.civilizations, civ.ID)

	return events.Event{
		Topic:          events.CivilizationDisbanded,
		CivilizationID: civ.ID,
		Reason:         reason,
	}
}

func (r *Registry) removeInvitesLocked(match func(*models.Invite) bool) int {
	removed := 0
	for id, invite := range r.invites {
		if match(invite) {
			delete(r.invites, id)
			removed++
		}
	}
	return removed
}

// recountLocked sums the player members of every member religion
func (r *Registry) recountLocked(civ *models.Civilization) {
	total := 0
	for _, religionID := range civ.ReligionIDs {
		if religion, ok := r.religions.Get(religionID); ok {
			total += religion.MemberCount()
		}
	}
	civ.MemberCount = total
}

// RefreshMemberCount recomputes the member count of the civilization holding religionID
func (r *Registry) RefreshMemberCount(ctx context.Context, religionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	civID, ok := r.byReligion[religionID]
	if !ok {
		return
	}
	if civ, ok := r.civilizations[civID]; ok {
		r.recountLocked(civ)
		slog.DebugContext(ctx, "Civilization member count refreshed", "civilization_id", civID, "members", civ.MemberCount)
	}
}

// RecordMilestone applies a milestone completion once. It reports whether the
// grant was applied and the resulting rank.
func (r *Registry) RecordMilestone(ctx context.Context, civID string, grant models.Grant) (bool, int, error) {
	if err := result.RequireIDs("civilization_id", civID, "milestone_id", grant.MilestoneID); err != nil {
		return false, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	civ, ok := r.civilizations[civID]
	if !ok {
		return false, 0, fmt.Errorf("%w: %s", ErrCivilizationNotFound, civID)
	}
	if civ.HasMilestone(grant.MilestoneID) {
		return false, civ.Rank, nil
	}

	civ.CompletedMilestones = append(civ.CompletedMilestones, grant.MilestoneID)
	if grant.RankReward > 0 {
		civ.Rank += grant.RankReward
	}
	if grant.UnlockBonusID != "" && !slices.Contains(civ.UnlockedBonuses, grant.UnlockBonusID) {
		civ.UnlockedBonuses = append(civ.UnlockedBonuses, grant.UnlockBonusID)
	}
	return true, civ.Rank, nil
}

// RecordWarKill increments the war kill counter and returns the new total
func (r *Registry) RecordWarKill(ctx context.Context, civID string) (int, error) {
	if err := result.RequireIDs("civilization_id", civID); err != nil {
		return 0, err
	}

	r.mu.Lock()
	civ, ok := r.civilizations[civID]
	if !ok {
		r.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrCivilizationNotFound, civID)
	}
	civ.WarKills++
	kills := civ.WarKills
	r.mu.Unlock()

	r.publisher.Publish(ctx, events.Event{
		Topic:          events.CivilizationWarKill,
		CivilizationID: civID,
		Value:          kills,
	})
	return kills, nil
}

// Get returns a copy of a live civilization
func (r *Registry) Get(civID string) (models.Civilization, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	civ, ok := r.civilizations[civID]
	if !ok {
		return models.Civilization{}, false
	}
	return civ.Clone(), true
}

// GetByReligion returns the civilization religionID belongs to
func (r *Registry) GetByReligion(religionID string) (models.Civilization, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	civID, ok := r.byReligion[religionID]
	if !ok {
		return models.Civilization{}, false
	}
	civ, ok := r.civilizations[civID]
	if !ok {
		return models.Civilization{}, false
	}
	return civ.Clone(), true
}

// List returns every live civilization, oldest first
func (r *Registry) List() []models.Civilization {
	r.mu.Lock()
	list := make([]models.Civilization, 0, len(r.civilizations))
	for _, civ := range r.civilizations {
		list = append(list, civ.Clone())
	}
	r.mu.Unlock()

	slices.SortFunc(list, func(a, b models.Civilization) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// InvitesForReligion returns the live invites addressed to religionID
func (r *Registry) InvitesForReligion(religionID string) []models.Invite {
	return r.liveInvites(func(i *models.Invite) bool { return i.ReligionID == religionID })
}

// InvitesForCivilization returns the live invites sent by civID
func (r *Registry) InvitesForCivilization(civID string) []models.Invite {
	return r.liveInvites(func(i *models.Invite) bool { return i.CivilizationID == civID })
}

// GetInvite returns a copy of an invite, expired or not
func (r *Registry) GetInvite(inviteID string) (models.Invite, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invite, ok := r.invites[inviteID]
	if !ok {
		return models.Invite{}, false
	}
	return *invite, true
}

func (r *Registry) liveInvites(match func(*models.Invite) bool) []models.Invite {
	r.mu.Lock()
	now := r.now()
	list := make([]models.Invite, 0)
	for _, invite := range r.invites {
		if match(invite) && !invite.IsExpired(now) {
			list = append(list, *invite)
		}
	}
	r.mu.Unlock()

	slices.SortFunc(list, func(a, b models.Invite) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return list
}

// CleanupExpiredInvites removes expired invites and returns how many were removed
func (r *Registry) CleanupExpiredInvites(ctx context.Context) int {
	r.mu.Lock()
	now := r.now()
	removed := r.removeInvitesLocked(func(i *models.Invite) bool { return i.IsExpired(now) })
	r.mu.Unlock()

	if removed > 0 {
		slog.InfoContext(ctx, "Expired civilization invites removed", "count", removed)
	}
	return removed
}

// Load restores the registry from its snapshot slot. Entries that would break
// membership invariants are dropped. On failure the registry starts empty and
// the error is returned.
func (r *Registry) Load(ctx context.Context) error {
	var snap models.RegistrySnapshot
	found, err := r.store.Load(ctx, SnapshotSlot, &snap)

	civilizations := make(map[string]*models.Civilization)
	byReligion := make(map[string]string)
	invites := make(map[string]*models.Invite)

	if err == nil && found {
		for i := range snap.Civilizations {
			civ := snap.Civilizations[i].Clone()
			if civ.ID == "" || civ.DisbandedAt != nil {
				continue
			}
			religionIDs := make([]string, 0, len(civ.ReligionIDs))
			for _, religionID := range civ.ReligionIDs {
				if _, taken := byReligion[religionID]; taken || slices.Contains(religionIDs, religionID) {
					slog.WarnContext(ctx, "Dropping duplicate civilization membership",
						"civilization_id", civ.ID,
						"religion_id", religionID)
					continue
				}
				religionIDs = append(religionIDs, religionID)
			}
			civ.ReligionIDs = religionIDs
			if !civ.IsValid() || !civ.HasReligion(civ.FounderReligionID) {
				slog.WarnContext(ctx, "Skipping invalid civilization in snapshot",
					"civilization_id", civ.ID,
					"religions", len(civ.ReligionIDs))
				continue
			}
			if civ.CompletedMilestones == nil {
				civ.CompletedMilestones = []string{}
			}
			if civ.UnlockedBonuses == nil {
				civ.UnlockedBonuses = []string{}
			}
			for _, religionID := range civ.ReligionIDs {
				byReligion[religionID] = civ.ID
			}
			civilizations[civ.ID] = &civ
		}
		for i := range snap.Invites {
			invite := snap.Invites[i]
			if _, ok := civilizations[invite.CivilizationID]; !ok {
				continue
			}
			invites[invite.ID] = &invite
		}
	}

	r.mu.Lock()
	r.civilizations = civilizations
	r.byReligion = byReligion
	r.invites = invites
	r.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Failed to load civilizations, starting empty", "error", err)
		return fmt.Errorf("failed to load civilizations: %w", err)
	}
	slog.InfoContext(ctx, "Civilizations loaded",
		"civilizations", len(civilizations),
		"invites", len(invites),
		"found", found)
	return nil
}

// Save writes every civilization and invite to the snapshot slot
func (r *Registry) Save(ctx context.Context) error {
	r.mu.Lock()
	snap := models.RegistrySnapshot{
		Civilizations: make([]models.Civilization, 0, len(r.civilizations)),
		Invites:       make([]models.Invite, 0, len(r.invites)),
	}
	for _, civ := range r.civilizations {
		snap.Civilizations = append(snap.Civilizations, civ.Clone())
	}
	for _, invite := range r.invites {
		snap.Invites = append(snap.Invites, *invite)
	}
	r.mu.Unlock()

	slices.SortFunc(snap.Civilizations, func(a, b models.Civilization) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(snap.Invites, func(a, b models.Invite) int { return strings.Compare(a.ID, b.ID) })

	if err := r.store.Save(ctx, SnapshotSlot, snap); err != nil {
		slog.WarnContext(ctx, "Failed to save civilizations", "error", err)
		return fmt.Errorf("failed to save civilizations: %w", err)
	}
	return nil
}
