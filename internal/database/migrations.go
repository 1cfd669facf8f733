package database

import (
	"context"
	"fmt"

	"board-automator-api/db/migrations"

	"go.uber.org/zap"
)

// MigrationStep is one embedded schema file applied at startup.
type MigrationStep struct {
	Name  string
	Query string
}

// MigrationSteps returns the up migrations in the order they must be applied.
func MigrationSteps() []MigrationStep {
	return []MigrationStep{
		{"initial schema", migrations.InitialSchemaUp},
		{"automation schema", migrations.AutomationSchemaUp},
		{"due scan indexes", migrations.DueScanIndexesUp},
	}
}

// RunMigrations voert de embedded up-migraties uit als enabled true is.
// Voor versiebeheer en rollback is er cmd/migrate.
func RunMigrations(ctx context.Context, db Querier, enabled bool, log *zap.Logger) error {
	if !enabled {
		log.Info("skipping migrations (RUN_MIGRATIONS is not 'true')", zap.String("component", "migrations"))
		return nil
	}

	log.Info("running database migrations", zap.String("component", "migrations"))

	for _, step := range MigrationSteps() {
		if _, err := db.Exec(ctx, step.Query); err != nil {
			log.Error(step.Name+" migration failed", zap.String("component", "migrations"), zap.Error(err))
			return fmt.Errorf("migration %q: %w", step.Name, err)
		}
		log.Info(step.Name+" migration applied successfully", zap.String("component", "migrations"))
	}

	log.Info("all database migrations applied successfully", zap.String("component", "migrations"))
	return nil
}
