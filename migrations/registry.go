// Package migrations holds the versioned schema changes of the pantheon database
package migrations

import (
	"go-pantheon/pkg/migrations"
)

var registeredMigrations []migrations.RegisteredMigration

// Register adds a migration to the registry. Called from init.
func Register(migration Migration) {
	registeredMigrations = append(registeredMigrations, migrations.RegisteredMigration{
		Version:     migration.Version,
		Description: migration.Description,
		Up:          migration.Up,
		Down:        migration.Down,
	})
}

type Migration struct {
	Version     string
	Description string
	Up          migrations.MigrationFunc
	Down        migrations.MigrationFunc
}

// RegisterAll registers every migration with runner
func RegisterAll(runner *migrations.Runner) {
	for _, m := range registeredMigrations {
		runner.Register(m)
	}
}

// All returns the registered migrations
func All() []migrations.RegisteredMigration {
	return append([]migrations.RegisteredMigration(nil), registeredMigrations...)
}
