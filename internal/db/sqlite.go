package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

const SQLiteScheme = "sqlite://"

// Return true if dsn points to sqlite database: sqlite://path/to/file.db or sqlite://:memory:
func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, SQLiteScheme)
}

// Open sqlite database and apply embedded migrations
// In-memory database lives as long as its single connection, so pool is limited to one connection
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	path := strings.TrimPrefix(dsn, SQLiteScheme)
	if path == "" {
		return nil, errors.New("sqlite path must not be empty")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	conn, err := sql.Open("sqlite3", path+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cant open sqlite database. Err: %w", err)
	}
	if strings.HasPrefix(path, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("cant connect to sqlite database. Err: %w", err)
	}

	if err := MigrateSQLite(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

// Run embedded sqlite migrations on already opened database
// Migrator is not closed on purpose: closing it closes the database too
func MigrateSQLite(conn *sql.DB) error {
	source, err := iofs.New(migrations, "migrations/sqlite")
	if err != nil {
		return err
	}

	driver, err := sqlite3.WithInstance(conn, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("error while preparing sqlite driver. Err: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("error while preparing migrator. Err: %w", err)
	}

	err = migrator.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error while applying migrations. Err: %w", err)
	}

	return nil
}
