package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	localMigrations "go-pantheon/migrations"
	"go-pantheon/pkg/app"
	pkgMigrations "go-pantheon/pkg/migrations"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status")
		steps   = flag.Int("steps", 1, "Number of migrations to roll back (down only)")
		dryRun  = flag.Bool("dry-run", false, "Print pending migrations without applying them")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	appCtx, err := app.InitializeApp(ctx, "migrate", app.Options{NeedMongo: true})
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer appCtx.Shutdown(ctx)

	runner := pkgMigrations.NewRunner(appCtx.MongoDB.Database)
	localMigrations.RegisterAll(runner)

	switch *command {
	case "up":
		if *dryRun {
			printStatus(ctx, runner)
			return
		}
		if err := runner.Run(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		slog.InfoContext(ctx, "All migrations applied")

	case "down":
		if *dryRun {
			printStatus(ctx, runner)
			return
		}
		if err := runner.Rollback(ctx, *steps); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		slog.InfoContext(ctx, "Rollback completed", "steps", *steps)

	case "status":
		printStatus(ctx, runner)

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

func printStatus(ctx context.Context, runner *pkgMigrations.Runner) {
	entries, err := runner.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to get migration status: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATUS\tAPPLIED AT\tDESCRIPTION")
	for _, e := range entries {
		status, at := "pending", "-"
		if e.Applied {
			status, at = "applied", e.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Version, status, at, e.Description)
	}
	w.Flush()
}
