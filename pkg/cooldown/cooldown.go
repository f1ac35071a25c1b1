// Package cooldown throttles repeated player operations such as diplomatic
// proposals and war declarations.
package cooldown

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies a throttled operation
type Kind string

const (
	DiplomaticProposal Kind = "diplomatic_proposal"
	WarDeclaration     Kind = "war_declaration"
)

// DefaultDurations holds the cooldown for every kind
var DefaultDurations = map[Kind]time.Duration{
	DiplomaticProposal: 30 * time.Second,
	WarDeclaration:     60 * time.Second,
}

// Tracker is consumed by services that throttle player actions
type Tracker interface {
	CanPerform(ctx context.Context, playerID string, kind Kind) (bool, string)
	Record(ctx context.Context, playerID string, kind Kind)
}

func waitMessage(kind Kind, remaining time.Duration) string {
	seconds := int(remaining.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("You must wait %d seconds before another %s", seconds, describe(kind))
}

func describe(kind Kind) string {
	switch kind {
	case DiplomaticProposal:
		return "diplomatic proposal"
	case WarDeclaration:
		return "war declaration"
	default:
		return string(kind)
	}
}

func durationFor(durations map[Kind]time.Duration, kind Kind) time.Duration {
	if d, ok := durations[kind]; ok {
		return d
	}
	return DefaultDurations[kind]
}
