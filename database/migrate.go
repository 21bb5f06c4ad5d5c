package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations applies all pending migrations for the driver.
func RunMigrations(sqlDB *sql.DB, driver string) error {
	m, err := newMigrate(sqlDB, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(sqlDB *sql.DB, driver string) error {
	m, err := newMigrate(sqlDB, driver)
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// MigrationVersion returns the applied schema version. A database with no
// migrations reports version 0.
func MigrationVersion(sqlDB *sql.DB, driver string) (uint, bool, error) {
	m, err := newMigrate(sqlDB, driver)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// newMigrate builds a migrate instance on an existing connection. The
// instance is not closed here since closing it would close sqlDB.
func newMigrate(sqlDB *sql.DB, driver string) (*migrate.Migrate, error) {
	var (
		target migratedb.Driver
		err    error
		dir    string
	)
	switch driver {
	case DriverMySQL, "":
		dir = "migrations/mysql"
		target, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	case DriverSQLite:
		dir = "migrations/sqlite"
		target, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
