// Package migrations applies versioned MongoDB schema changes and records
// them in the _migrations collection
package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection records applied migrations
const Collection = "_migrations"

// Migration is the record stored for an applied migration
type Migration struct {
	Version     string    `bson:"version"`
	Description string    `bson:"description"`
	AppliedAt   time.Time `bson:"applied_at"`
	Checksum    string    `bson:"checksum"`
}

// MigrationFunc applies or reverts one migration
type MigrationFunc func(ctx context.Context, db *mongo.Database) error

// RegisteredMigration holds a migration's metadata and functions. Down is optional.
type RegisteredMigration struct {
	Version     string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// StatusEntry is one line of Runner.Status
type StatusEntry struct {
	Version     string
	Description string
	Applied     bool
	AppliedAt   time.Time
}

// Runner applies registered migrations in version order
type Runner struct {
	db         *mongo.Database
	collection *mongo.Collection
	migrations []RegisteredMigration
}

func NewRunner(db *mongo.Database) *Runner {
	return &Runner{
		db:         db,
		collection: db.Collection(Collection),
	}
}

// Register adds a migration. Migrations run sorted by version regardless of
// registration order.
func (r *Runner) Register(migration RegisteredMigration) {
	r.migrations = append(r.migrations, migration)
	sortByVersion(r.migrations)
}

func sortByVersion(migrations []RegisteredMigration) {
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
}

// Pending returns the registered migrations missing from applied
func Pending(registered []RegisteredMigration, applied []Migration) []RegisteredMigration {
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}
	var pending []RegisteredMigration
	for _, m := range registered {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// Run applies every pending migration, each in its own session
func (r *Runner) Run(ctx context.Context) error {
	if err := r.ensureIndex(ctx); err != nil {
		return fmt.Errorf("failed to create migrations index: %w", err)
	}

	applied, err := r.applied(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range Pending(r.migrations, applied) {
		slog.InfoContext(ctx, "Running migration", "version", migration.Version, "description", migration.Description)

		err := r.db.Client().UseSession(ctx, func(sc mongo.SessionContext) error {
			if err := migration.Up(sc, r.db); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Version, err)
			}
			record := Migration{
				Version:     migration.Version,
				Description: migration.Description,
				AppliedAt:   time.Now().UTC(),
				Checksum:    checksum(migration),
			}
			if _, err := r.collection.InsertOne(sc, record); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Rollback reverts the last steps applied migrations
func (r *Runner) Rollback(ctx context.Context, steps int) error {
	applied, err := r.applied(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	steps = min(steps, len(applied))

	byVersion := make(map[string]RegisteredMigration, len(r.migrations))
	for _, m := range r.migrations {
		byVersion[m.Version] = m
	}

	for i := len(applied) - 1; i >= len(applied)-steps; i-- {
		version := applied[i].Version
		migration, ok := byVersion[version]
		if !ok {
			return fmt.Errorf("migration %s not found in registered migrations", version)
		}
		if migration.Down == nil {
			slog.WarnContext(ctx, "Migration has no rollback, skipping", "version", version)
			continue
		}

		slog.InfoContext(ctx, "Rolling back migration", "version", version)
		err := r.db.Client().UseSession(ctx, func(sc mongo.SessionContext) error {
			if err := migration.Down(sc, r.db); err != nil {
				return fmt.Errorf("rollback %s failed: %w", version, err)
			}
			if _, err := r.collection.DeleteOne(sc, bson.M{"version": version}); err != nil {
				return fmt.Errorf("failed to remove migration record %s: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Status lists every registered migration with its applied time
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	at := make(map[string]time.Time, len(applied))
	for _, m := range applied {
		at[m.Version] = m.AppliedAt
	}

	entries := make([]StatusEntry, 0, len(r.migrations))
	for _, m := range r.migrations {
		appliedAt, ok := at[m.Version]
		entries = append(entries, StatusEntry{
			Version:     m.Version,
			Description: m.Description,
			Applied:     ok,
			AppliedAt:   appliedAt,
		})
	}
	return entries, nil
}

func (r *Runner) ensureIndex(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *Runner) applied(ctx context.Context) ([]Migration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var migrations []Migration
	if err := cursor.All(ctx, &migrations); err != nil {
		return nil, err
	}
	return migrations, nil
}

func checksum(migration RegisteredMigration) string {
	return fmt.Sprintf("%s:%s", migration.Version, migration.Description)
}
