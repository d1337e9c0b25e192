// Package sqlite stores partymix history in SQLite through the CGO-free
// ncruces driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/partymix/internal/history"
	"github.com/zjrosen/partymix/internal/infrastructure/migrations"
	"github.com/zjrosen/partymix/internal/log"
)

// DB owns the history database connection.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens the database at path, creating it and its directory if
// needed, and applies pending migrations.
func NewDB(path string) (*DB, error) {
	log.Debug(log.CatHistory, "Opening database", "path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			log.ErrorErr(log.CatHistory, "Pragma failed", err, "pragma", pragma)
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrations.Run(conn); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatHistory, "Migrations failed", err)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	log.Info(log.CatHistory, "Database ready", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// Close releases the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// HistoryRepository returns the run history stored in this database.
func (db *DB) HistoryRepository() history.Repository {
	return &historyRepository{db: db.conn}
}

// Connection returns the underlying *sql.DB.
func (db *DB) Connection() *sql.DB {
	return db.conn
}
