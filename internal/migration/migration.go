package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// RunMigrations applies all pending schema migrations so the hub is
// usable out of the box for local and self-hosted environments.
func RunMigrations(db *sql.DB, dbType string) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driverName, driver, err := databaseDriver(db, dbType)
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

func databaseDriver(db *sql.DB, dbType string) (string, database.Driver, error) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "mysql":
		driver, err := mysql.WithInstance(db, &mysql.Config{})
		if err != nil {
			return "", nil, fmt.Errorf("create mysql migration driver: %w", err)
		}
		return "mysql", driver, nil
	case "sqlite", "sqlite3":
		driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return "", nil, fmt.Errorf("create sqlite migration driver: %w", err)
		}
		return "sqlite3", driver, nil
	default:
		driver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return "", nil, fmt.Errorf("create postgres migration driver: %w", err)
		}
		return "postgres", driver, nil
	}
}
