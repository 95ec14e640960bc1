// Package sqlstore implements the storage contract on a relational database.
// PostgreSQL is reached through pgx and SQLite through go-sqlite3; both share
// one schema, applied with golang-migrate from embedded migration files.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements the Storage interface on database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// Open connects to the database, applies pending migrations and returns a ready store.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: sql driver %q", storage.ErrUnknownBackend, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, driver, dsn); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations applies the embedded migrations. PostgreSQL migrates on a
// dedicated handle, since closing the migrate instance closes its database.
// SQLite migrates on db itself: an in-memory database exists only on the
// connection that created it.
func runMigrations(db *sql.DB, driver, dsn string) error {
	var (
		dbDriver database.Driver
		err      error
	)
	switch driver {
	case DriverPostgres:
		migrationDB, openErr := sql.Open(driver, dsn)
		if openErr != nil {
			return fmt.Errorf("failed to open migration connection: %w", openErr)
		}
		dbDriver, err = postgres.WithInstance(migrationDB, &postgres.Config{MultiStatementEnabled: true})
		if err != nil {
			migrationDB.Close()
		}
	default:
		dbDriver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create %s driver instance: %w", driver, err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		if driver == DriverPostgres {
			dbDriver.Close()
		}
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, dbDriver)
	if err != nil {
		source.Close()
		if driver == DriverPostgres {
			dbDriver.Close()
		}
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if driver == DriverPostgres {
		defer m.Close()
	} else {
		defer source.Close()
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}

		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
		}

		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
