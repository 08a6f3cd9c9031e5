package db

import (
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

var ErrUnknownMigrateMode = errors.New("unknown migrate mode (use 'up' or 'down')")

// Migrate applies (up) or rolls back one step of (down) the SQL files in dir.
func Migrate(conn *sql.DB, dir, mode string) error {
	if mode != MigrateUp && mode != MigrateDown {
		return fmt.Errorf("%w: %s", ErrUnknownMigrateMode, mode)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", dir), "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if mode == MigrateUp {
		err = m.Up()
	} else {
		err = m.Steps(-1)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations (%s): %w", mode, err)
	}

	version, dirty, _ := m.Version()
	logger.L().Info("migrations applied",
		zap.String("mode", mode),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
