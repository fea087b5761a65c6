package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-publish/pkg/publish/config"
	repopg "github.com/tendant/simple-publish/pkg/publish/repo/postgres"
	reposqlite "github.com/tendant/simple-publish/pkg/publish/repo/sqlite"
)

func newMigrateCommand(c *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.migrate(cmd, true)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert every applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.migrate(cmd, false)
			},
		},
	)
	return migrateCmd
}

func (c *commandContext) migrate(cmd *cobra.Command, up bool) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Require(config.SectionDatabase); err != nil {
		return err
	}

	db := cfg.Database
	switch db.Driver {
	case "postgres":
		step := repopg.MigrateUp
		if !up {
			step = repopg.MigrateDown
		}
		if err := step(db.ConnString()); err != nil {
			return err
		}
	case "sqlite":
		if !up {
			return fmt.Errorf("migrate down is not supported for sqlite; remove %s instead", db.SQLitePath)
		}
		// Open applies the schema
		repo, err := reposqlite.Open(db.SQLitePath)
		if err != nil {
			return err
		}
		if err := repo.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("nothing to migrate for database driver %q", db.Driver)
	}

	direction := "up"
	if !up {
		direction = "down"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database %s\n", db.Driver, direction)
	return nil
}
