package main

// Run database migrations:
//   go run ./cmd/migrate        # apply pending
//   go run ./cmd/migrate down   # roll back the latest

import (
	"context"
	"os"

	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	cfg := config.Load()
	ctx := context.Background()

	// Policies and grants need the owner connection when one is configured.
	url := cfg.ServiceDatabaseURL
	if url == "" {
		url = cfg.DatabaseURL
	}

	opts := db.OptionsFromEnv(db.AppPoolPrefix, db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, url, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	dir := db.Up
	if len(os.Args) > 1 {
		dir = db.Direction(os.Args[1])
	}
	if err := db.Migrate(ctx, sqlDB, dir); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.completed", map[string]any{"direction": string(dir)})
}
