package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	if _, err := shared.LoadConfig(path); err != nil {
		return fmt.Errorf("created config failed to parse: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Config written to %s\n", path)
}

// SetupStorage opens the configured storage driver, which creates and migrates it.
func (r *Runner) SetupStorage(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Storage
	if cmd.Bool("rollback") {
		return r.rollbackStorage(cfg)
	}
	r.logger.Info("initializing storage", "driver", cfg.Driver, "path", cfg.Path)

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	r.logger.Infof("setup complete for %v storage", cfg.Driver)
	return r.writePlain("✓ Storage ready (%s)\n", cfg.Driver)
}

func (r *Runner) rollbackStorage(cfg shared.StorageConfig) error {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("%w: rollback only applies to sqlite storage", shared.ErrInvalidArgument)
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	r.logger.Info("rolled back latest migration", "path", cfg.Path)
	return r.writePlain("✓ Rolled back latest migration\n")
}
