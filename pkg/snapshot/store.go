// Package snapshot is the key-value checkpoint store components serialize
// their whole state into on world-save and restore from on world-load.
package snapshot

import (
	"context"
	"fmt"
	"strings"
)

// Store persists one value per named slot. Load reports found=false, without
// an error, when the slot has never been written.
type Store interface {
	Load(ctx context.Context, slot string, dest any) (bool, error)
	Save(ctx context.Context, slot string, value any) error
}

// Backend names accepted by SNAPSHOT_BACKEND
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

// ValidateSlot rejects empty slot names
func ValidateSlot(slot string) error {
	if strings.TrimSpace(slot) == "" {
		return fmt.Errorf("snapshot slot name is required")
	}
	return nil
}
