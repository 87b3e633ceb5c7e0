package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationsTable records which connector schema fixes were applied.
const MigrationsTable = "deployer_schema_migrations"

//go:embed migrations/*.sql
var schemaFixes embed.FS

// FixConnectorSchema applies the pending schema fixes to a connector database.
// A database that is already up to date is not an error.
func (p *Provisioner) FixConnectorSchema(ctx context.Context, dbName string) error {
	db, err := p.openAdmin(ctx, dbName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	src, err := iofs.New(schemaFixes, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load schema fixes: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return fmt.Errorf("failed to prepare schema fixes for %s: %w", dbName, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, p.logger)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			p.logger.Info("connector schema already up to date", slog.String("database", dbName))
			return nil
		}
		return fmt.Errorf("failed to apply schema fixes to %s: %w", dbName, err)
	}

	p.logger.Info("connector schema fixed", slog.String("database", dbName))
	return nil
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("failed to close migration source", slog.Any("error", sourceErr))
	}
	if dbErr != nil {
		logger.Error("failed to close migration database", slog.Any("error", dbErr))
	}
}
