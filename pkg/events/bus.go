// Package events is the in-process publish/subscribe registry that connects
// the religion directory, the civilization registry, diplomacy and milestones.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Topic names an event stream
type Topic string

const (
	CivilizationMemberAdded   Topic = "civilization.member_added"
	CivilizationMemberRemoved Topic = "civilization.member_removed"
	CivilizationDisbanded     Topic = "civilization.disbanded"
	CivilizationWarKill       Topic = "civilization.war_kill"

	RelationshipEstablished Topic = "diplomacy.relationship_established"
	RelationshipEnded       Topic = "diplomacy.relationship_ended"
	WarDeclared             Topic = "diplomacy.war_declared"

	MilestoneUnlocked Topic = "milestones.unlocked"
	RankIncreased     Topic = "milestones.rank_increased"

	ReligionDeleted            Topic = "religion.deleted"
	ReligionMemberCountChanged Topic = "religion.member_count_changed"
	HolySiteCreated            Topic = "religion.holy_site_created"
	HolySiteUpgraded           Topic = "religion.holy_site_upgraded"
	RitualUpgraded             Topic = "religion.ritual_upgraded"
)

// AllTopics lists every topic raised by the core
var AllTopics = []Topic{
	CivilizationMemberAdded,
	CivilizationMemberRemoved,
	CivilizationDisbanded,
	CivilizationWarKill,
	RelationshipEstablished,
	RelationshipEnded,
	WarDeclared,
	MilestoneUnlocked,
	RankIncreased,
	ReligionDeleted,
	ReligionMemberCountChanged,
	HolySiteCreated,
	HolySiteUpgraded,
	RitualUpgraded,
}

// Event is the payload delivered to subscribers. Fields not relevant to a
// topic are left empty.
type Event struct {
	Topic          Topic     `json:"topic"`
	CivilizationID string    `json:"civilization_id,omitempty"`
	OtherID        string    `json:"other_id,omitempty"`
	ReligionID     string    `json:"religion_id,omitempty"`
	MilestoneID    string    `json:"milestone_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Value          int       `json:"value,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Handler receives published events
type Handler func(ctx context.Context, event Event)

// Subscription is the token returned by Subscribe
type Subscription struct {
	topic Topic
	id    uint64
}

// Publisher is the narrow interface services depend on
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Bus is a topic keyed list of handlers
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Topic]map[uint64]Handler
	order    map[Topic][]uint64
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Topic]map[uint64]Handler),
		order:    make(map[Topic][]uint64),
	}
}

// Subscribe registers handler for topic. Handlers run in subscription order.
func (b *Bus) Subscribe(topic Topic, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[uint64]Handler)
	}
	b.handlers[topic][id] = handler
	b.order[topic] = append(b.order[topic], id)

	return Subscription{topic: topic, id: id}
}

// Unsubscribe removes a handler. Unknown tokens are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[sub.topic][sub.id]; !ok {
		return
	}
	delete(b.handlers[sub.topic], sub.id)
	ids := b.order[sub.topic]
	for i, id := range ids {
		if id == sub.id {
			b.order[sub.topic] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

// UnsubscribeAll removes every handle in subs
func (b *Bus) UnsubscribeAll(subs []Subscription) {
	for _, sub := range subs {
		b.Unsubscribe(sub)
	}
}

// HandlerCount returns the number of handlers registered for topic
func (b *Bus) HandlerCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

// Publish delivers event to every handler of its topic. The handler list is
// copied under the read lock and invoked after it is released, so handlers
// may subscribe, unsubscribe or publish.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	ids := b.order[event.Topic]
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[event.Topic][id])
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(ctx, handler, event)
	}
}

func (b *Bus) dispatch(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Event handler panicked",
				"topic", event.Topic,
				"civilization_id", event.CivilizationID,
				"panic", r)
		}
	}()
	handler(ctx, event)
}

// Discard is a Publisher that drops every event
type Discard struct{}

// Publish implements Publisher
func (Discard) Publish(context.Context, Event) {}
