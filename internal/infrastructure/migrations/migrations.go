// Package migrations holds the history database schema and applies it with
// golang-migrate.
//
// The stock golang-migrate sqlite3 driver imports mattn/go-sqlite3, which
// registers the same "sqlite3" driver name as ncruces/go-sqlite3. Driver is a
// replacement that works on any *sql.DB opened through ncruces.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var files embed.FS

// FS returns the embedded migration files.
func FS() fs.FS { return files }

// New returns a migrator for db over the embedded migrations.
func New(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	driver, err := WithInstance(db, &Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", source, "sqlite3", driver)
}

// Run applies all pending migrations. An up-to-date database is not an error.
func Run(db *sql.DB) error {
	m, err := New(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
