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

	"go-pantheon/internal/religions/models"
	"go-pantheon/pkg/events"
	"go-pantheon/pkg/result"
	"go-pantheon/pkg/snapshot"

	"github.com/google/uuid"
)

// SnapshotSlot is the snapshot store slot holding the directory
const SnapshotSlot = "religions"

// Directory owns every religion, its members, holy sites, ritual progress and
// prestige total
type Directory struct {
	mu        sync.Mutex
	religions map[string]*models.Religion
	byPlayer  map[string]string

	store     snapshot.Store
	publisher events.Publisher
	now       func() time.Time
	newID     func() string

	hooksMu    sync.Mutex
	hookSeq    uint64
	hookOrder  []uint64
	deleteHook map[uint64]func(context.Context, string) error
}

// Option configures a Directory
type Option func(*Directory)

func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(d *Directory) { d.newID = newID }
}

func NewDirectory(store snapshot.Store, publisher events.Publisher, opts ...Option) *Directory {
	if publisher == nil {
		publisher = events.Discard{}
	}
	d := &Directory{
		religions:  make(map[string]*models.Religion),
		byPlayer:   make(map[string]string),
		deleteHook: make(map[uint64]func(context.Context, string) error),
		store:      store,
		publisher:  publisher,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateInput holds the fields of a new religion
type CreateInput struct {
	Name     string
	LeaderID string
	Deity    models.DeityDomain
}

// Create founds a religion led by input.LeaderID, who becomes its first member
func (d *Directory) Create(ctx context.Context, input CreateInput) (models.Religion, result.Outcome, error) {
	if err := result.RequireIDs("leader_id", input.LeaderID); err != nil {
		return models.Religion{}, result.Outcome{}, err
	}

	name := strings.TrimSpace(input.Name)
	if n := len([]rune(name)); n < 3 || n > 32 {
		return models.Religion{}, result.Rejected("Religion name must be between 3 and 32 characters"), nil
	}
	if !input.Deity.Valid() {
		return models.Religion{}, result.Rejected("Unknown deity domain %q", input.Deity), nil
	}

	d.mu.Lock()
	if existing, ok := d.byPlayer[input.LeaderID]; ok {
		name := d.religionName(existing)
		d.mu.Unlock()
		return models.Religion{}, result.Rejected("You already belong to religion %s", name), nil
	}
	for _, r := range d.religions {
		if strings.EqualFold(r.Name, name) {
			d.mu.Unlock()
			return models.Religion{}, result.Rejected("A religion named %q already exists", name), nil
		}
	}

	religion := &models.Religion{
		ID:        d.newID(),
		Name:      name,
		LeaderID:  input.LeaderID,
		Deity:     input.Deity,
		MemberIDs: []string{input.LeaderID},
		CreatedAt: d.now().UTC(),
	}
	d.religions[religion.ID] = religion
	d.byPlayer[input.LeaderID] = religion.ID
	created := religion.Clone()
	d.mu.Unlock()

	slog.InfoContext(ctx, "Religion created",
		"religion_id", created.ID,
		"name", created.Name,
		"deity", created.Deity,
		"leader_id", created.LeaderID)

	return created, result.Okf("Religion %s founded", created.Name), nil
}

// religionName must be called with the lock held
func (d *Directory) religionName(id string) string {
	if r, ok := d.religions[id]; ok {
		return r.Name
	}
	return id
}

// Get returns a copy of the religion
func (d *Directory) Get(id string) (models.Religion, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.religions[id]
	if !ok {
		return models.Religion{}, false
	}
	return r.Clone(), true
}

// GetByPlayer returns the religion playerID belongs to
func (d *Directory) GetByPlayer(playerID string) (models.Religion, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.byPlayer[playerID]
	if !ok {
		return models.Religion{}, false
	}
	return d.religions[id].Clone(), true
}

// List returns every religion ordered by name
func (d *Directory) List() []models.Religion {
	d.mu.Lock()
	list := make([]models.Religion, 0, len(d.religions))
	for _, r := range d.religions {
		list = append(list, r.Clone())
	}
	d.mu.Unlock()

	slices.SortFunc(list, func(a, b models.Religion) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return list
}

// Delete removes a religion. Only its leader may delete it.
func (d *Directory) Delete(ctx context.Context, religionID, requesterID string) (result.Outcome, error) {
	if err := result.RequireIDs("religion_id", religionID, "requester_id", requesterID); err != nil {
		return result.Outcome{}, err
	}

	d.mu.Lock()
	religion, ok := d.religions[religionID]
	if !ok {
		d.mu.Unlock()
		return result.Rejected("Religion not found"), nil
	}
	if religion.LeaderID != requesterID {
		d.mu.Unlock()
		return result.Denied("Only the leader of %s may delete it", religion.Name), nil
	}
	// Free the members to join elsewhere
	for _, member := range religion.MemberIDs {
		delete(d.byPlayer, member)
	}
	delete(d.religions, religionID)
	name := religion.Name
	d.mu.Unlock()

	slog.InfoContext(ctx, "Religion deleted", "religion_id", religionID, "name", name)

	// Cleanup hooks run before the event is published
	cascadeErr := d.runDeleteHooks(ctx, religionID)
	d.publisher.Publish(ctx, events.Event{Topic: events.ReligionDeleted, ReligionID: religionID})

	if cascadeErr != nil {
		slog.ErrorContext(ctx, "Religion deleted but cleanup failed", "religion_id", religionID, "error", cascadeErr)
		return result.Outcome{}, fmt.Errorf("religion %s deleted but cleanup failed: %w", religionID, cascadeErr)
	}
	return result.Okf("Religion %s deleted", name), nil
}

// OnDelete registers hook to run synchronously inside Delete, after the
// religion is gone. Errors returned by hooks are returned by Delete. The
// returned func removes the hook.
func (d *Directory) OnDelete(hook func(ctx context.Context, religionID string) error) func() {
	d.hooksMu.Lock()
	defer d.hooksMu.Unlock()

	d.hookSeq++
	id := d.hookSeq
	d.deleteHook[id] = hook
	d.hookOrder = append(d.hookOrder, id)

	return func() {
		d.hooksMu.Lock()
		defer d.hooksMu.Unlock()
		delete(d.deleteHook, id)
		d.hookOrder = slices.DeleteFunc(d.hookOrder, func(v uint64) bool { return v == id })
	}
}

func (d *Directory) runDeleteHooks(ctx context.Context, religionID string) error {
	d.hooksMu.Lock()
	hooks := make([]func(context.Context, string) error, 0, len(d.hookOrder))
	for _, id := range d.hookOrder {
		hooks = append(hooks, d.deleteHook[id])
	}
	d.hooksMu.Unlock()

	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx, religionID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddMember adds a player who does not yet belong to any religion
func (d *Directory) AddMember(ctx context.Context, religionID, playerID string) (result.Outcome, error) {
	if err := result.RequireIDs("religion_id", religionID, "player_id", playerID); err != nil {
		return result.Outcome{}, err
	}

	d.mu.Lock()
	religion, ok := d.religions[religionID]
	if !ok {
		d.mu.Unlock()
		return result.Rejected("Religion not found"), nil
	}
	if existing, ok := d.byPlayer[playerID]; ok {
		name := d.religionName(existing)
		d.mu.Unlock()
		return result.Rejected("Player already belongs to religion %s", name), nil
	}
	religion.MemberIDs = append(religion.MemberIDs, playerID)
	d.byPlayer[playerID] = religionID
	count := len(religion.MemberIDs)
	d.mu.Unlock()

	d.publisher.Publish(ctx, events.Event{
		Topic:      events.ReligionMemberCountChanged,
		ReligionID: religionID,
		Value:      count,
	})
	return result.Okf("Player joined; the religion now has %d members", count), nil
}

// RemoveMember removes a player. The leader cannot be removed.
func (d *Directory) RemoveMember(ctx context.Context, religionID, playerID string) (result.Outcome, error) {
	if err := result.RequireIDs("religion_id", religionID, "player_id", playerID); err != nil {
		return result.Outcome{}, err
	}

	d.mu.Lock()
	religion, ok := d.religions[religionID]
	if !ok {
		d.mu.Unlock()
		return result.Rejected("Religion not found"), nil
	}
	if religion.LeaderID == playerID {
		d.mu.Unlock()
		return result.Rejected("The leader cannot leave; delete the religion instead"), nil
	}
	idx := slices.Index(religion.MemberIDs, playerID)
	if idx < 0 {
		d.mu.Unlock()
		return result.Rejected("Player is not a member of %s", religion.Name), nil
	}
	religion.MemberIDs = slices.Delete(religion.MemberIDs, idx, idx+1)
	delete(d.byPlayer, playerID)
	count := len(religion.MemberIDs)
	d.mu.Unlock()

	d.publisher.Publish(ctx, events.Event{
		Topic:      events.ReligionMemberCountChanged,
		ReligionID: religionID,
		Value:      count,
	})
	return result.Okf("Player left; the religion now has %d members", count), nil
}

// AddHolySite consecrates a tier 1 holy site
func (d *Directory) AddHolySite(ctx context.Context, religionID, name string) (models.HolySite, result.Outcome, error) {
	if err := result.RequireIDs("religion_id", religionID); err != nil {
		return models.HolySite{}, result.Outcome{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.HolySite{}, result.Rejected("Holy site name is required"), nil
	}

	d.mu.Lock()
	religion, ok := d.religions[religionID]
	if !ok {
		d.mu.Unlock()
		return models.HolySite{}, result.Rejected("Religion not found"), nil
	}
	site := models.HolySite{
		ID:        d.newID(),
		Name:      name,
		Tier:      1,
		CreatedAt: d.now().UTC(),
	}
	religion.HolySites = append(religion.HolySites, site)
	count := len(religion.HolySites)
	d.mu.Unlock()

	d.publisher.Publish(ctx, events.Event{
		Topic:      events.HolySiteCreated,
		ReligionID: religionID,
		Value:      count,
	})
	return site, result.Okf("Holy site %s consecrated", name), nil
}

// UpgradeHolySite raises a holy site by one tier up to MaxHolySiteTier
func (d *Directory) UpgradeHolySite(ctx context.Context, religionID, siteID string) (result.Outcome, error) {
	if err := result.RequireIDs("religion_id", religionID, "site_id", siteID); err != nil {
		return result.Outcome{}, err
	}

	d.mu.Lock()
	religion, ok := d.religions[religionID]
	if !ok {
		d.mu.Unlock()
		return result.Rejected("Religion not found"), nil
	}
	idx := slices.IndexFunc(religion.HolySites, func(s models.HolySite) bool { return s.ID == siteID })
	if idx < 0 {
		d.mu.Unlock()
		return result.Rejected("Holy site not found"), nil
	}
	site := &religion.HolySites[idx]
	if site.Tier >= models.MaxHolySiteTier {
		d.mu.Unlock()
		return result.Rejected("Holy site %s is already at the highest tier", site.Name), nil
	}
	site.Tier++
	tier := site.Tier
	d.mu.Unlock()

	d.publisher.Publish(ctx, events.Event{
		Topic:      events.HolySiteUpgraded,
		ReligionID: religionID,
		Value:      tier,
	})
	return result.Okf("Holy site upgraded to tier %d", tier), nil
}

// RecordRitualUpgrade counts a completed ritual tier upgrade and returns the new total
func (d *Directory) RecordRitualUpgrade(ctx context.Context, religionID string) (int, error) {
	if err := result.RequireIDs("religion_id", religionID); err != nil {
		return 0, err
	}

	d.mu.Lock()
	religion, ok := d.religions[religionID]
	if !ok {
		d.mu.Unlock()
		return 0, fmt.Errorf("religion %s not found", religionID)
	}
	religion.RitualUpgrades++
	count := religion.RitualUpgrades
	d.mu.Unlock()

	d.publisher.Publish(ctx, events.Event{
		Topic:      events.RitualUpgraded,
		ReligionID: religionID,
		Value:      count,
	})
	return count, nil
}

// Credit adds amount to a religion's prestige. Totals never drop below zero.
func (d *Directory) Credit(ctx context.Context, religionID string, amount int, reason string) error {
	if err := result.RequireIDs("religion_id", religionID); err != nil {
		return err
	}

	d.mu.Lock()
	religion, ok := d.religions[religionID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("religion %s not found", religionID)
	}
	before := models.RankForPrestige(religion.Prestige)
	religion.Prestige = max(religion.Prestige+amount, 0)
	total := religion.Prestige
	after := models.RankForPrestige(total)
	d.mu.Unlock()

	slog.DebugContext(ctx, "Prestige credited",
		"religion_id", religionID,
		"amount", amount,
		"total", total,
		"reason", reason)
	if after.Index != before.Index {
		slog.InfoContext(ctx, "Religion prestige rank changed",
			"religion_id", religionID,
			"from", before.Name,
			"to", after.Name)
	}
	return nil
}

// Load restores the directory from its snapshot slot. On failure the
// directory starts empty and the error is returned.
func (d *Directory) Load(ctx context.Context) error {
	var snap models.DirectorySnapshot
	found, err := d.store.Load(ctx, SnapshotSlot, &snap)

	religions := make(map[string]*models.Religion)
	byPlayer := make(map[string]string)
	if err == nil && found {
		for i := range snap.Religions {
			r := snap.Religions[i].Clone()
			if r.ID == "" || !r.Deity.Valid() {
				slog.WarnContext(ctx, "Skipping invalid religion in snapshot", "religion_id", r.ID, "deity", r.Deity)
				continue
			}
			members := r.MemberIDs[:0]
			for _, member := range r.MemberIDs {
				if _, taken := byPlayer[member]; taken {
					slog.WarnContext(ctx, "Dropping duplicate religion membership", "player_id", member, "religion_id", r.ID)
					continue
				}
				byPlayer[member] = r.ID
				members = append(members, member)
			}
			r.MemberIDs = members
			religions[r.ID] = &r
		}
	}

	d.mu.Lock()
	d.religions = religions
	d.byPlayer = byPlayer
	d.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Failed to load religions, starting empty", "error", err)
		return fmt.Errorf("failed to load religions: %w", err)
	}
	slog.InfoContext(ctx, "Religions loaded", "count", len(religions), "found", found)
	return nil
}

// Save writes the directory to its snapshot slot
func (d *Directory) Save(ctx context.Context) error {
	d.mu.Lock()
	snap := models.DirectorySnapshot{Religions: make([]models.Religion, 0, len(d.religions))}
	for _, r := range d.religions {
		snap.Religions = append(snap.Religions, r.Clone())
	}
	d.mu.Unlock()

	slices.SortFunc(snap.Religions, func(a, b models.Religion) int { return strings.Compare(a.ID, b.ID) })

	if err := d.store.Save(ctx, SnapshotSlot, snap); err != nil {
		slog.WarnContext(ctx, "Failed to save religions", "error", err)
		return fmt.Errorf("failed to save religions: %w", err)
	}
	return nil
}
