package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"recruit-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// Direction selects what Migrate does with the embedded set.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func prepareGoose() error {
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{})
	return goose.SetDialect("postgres")
}

// Migrate moves the schema one way. Up applies every pending embedded
// migration: dimensions, jobs and resumes with their child tables,
// match_evaluations, then the row-level policies. Down rolls back the most
// recent migration only. A nil database is a no-op.
func Migrate(ctx context.Context, database *sql.DB, dir Direction) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if database == nil {
		return nil
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	var err error
	switch dir {
	case Up:
		err = goose.UpContext(ctx, database, migrationsDir)
	case Down:
		err = goose.DownContext(ctx, database, migrationsDir)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	version, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	telemetry.Info("db.migrated", map[string]any{"direction": string(dir), "version": version})
	return nil
}

// gooseLogger routes goose output through telemetry.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	telemetry.Info("db.migration", map[string]any{"detail": fmt.Sprintf(format, v...)})
}

func (gooseLogger) Fatalf(format string, v ...any) {
	telemetry.Error("db.migration_fatal", map[string]any{"detail": fmt.Sprintf(format, v...)})
}
