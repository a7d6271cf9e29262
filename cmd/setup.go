package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/bgmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the built-in config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Wrote %s\n", configPath)
	r.writePlain("Set credentials.username or %s, and credentials.api_key or %s.\n", shared.EnvUsername, shared.EnvAPIKey)
	return nil
}

// SetupDatabase initializes the history database and runs migrations, or rolls back the latest one with --rollback.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if config.Database.Path == "" {
		return fmt.Errorf("%w: set database.path to enable run history", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(ctx, db); err != nil {
			return err
		}
		r.writePlain("✓ Rolled back latest migration in %s\n", config.Database.Path)
		return nil
	}

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s (%d migrations applied)\n", config.Database.Path, applied)
	return nil
}
