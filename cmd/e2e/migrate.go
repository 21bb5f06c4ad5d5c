package main

import (
	"database/sql"
	"fmt"

	"github.com/hairizuanbinnoorazman/ui-e2e/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(cmd, func(m migrations) error {
				if err := database.RunMigrations(m.sqlDB, m.driver); err != nil {
					return err
				}
				return m.printVersion(cmd)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(cmd, func(m migrations) error {
				if err := database.RollbackMigration(m.sqlDB, m.driver); err != nil {
					return err
				}
				return m.printVersion(cmd)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(cmd, func(m migrations) error {
				return m.printVersion(cmd)
			})
		},
	})

	return cmd
}

type migrations struct {
	sqlDB  *sql.DB
	driver string
}

func (m migrations) printVersion(cmd *cobra.Command) error {
	version, dirty, err := database.MigrationVersion(m.sqlDB, m.driver)
	if err != nil {
		return err
	}
	out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
	if err != nil {
		return err
	}
	view := struct {
		Driver  string `json:"driver" yaml:"driver"`
		Version uint   `json:"version" yaml:"version"`
		Dirty   bool   `json:"dirty" yaml:"dirty"`
	}{m.driver, version, dirty}
	return out.print(view, []string{"DRIVER", "VERSION", "DIRTY"}, func() [][]string {
		return [][]string{{view.Driver, fmt.Sprintf("%d", view.Version), fmt.Sprintf("%t", view.Dirty)}}
	})
}

func withMigrations(cmd *cobra.Command, fn func(m migrations) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, closeFn, err := openDatabase(cfg.Database, false)
	if err != nil {
		return err
	}
	defer closeFn()

	raw, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return fn(migrations{sqlDB: raw, driver: cfg.Database.Driver})
}
