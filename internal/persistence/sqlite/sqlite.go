// Package sqlite implements the booking document store on SQLite using the
// pure-Go modernc.org driver. Besides the usual CRUD repositories it owns the
// feed hub: every committed mutation republishes the affected collection as a
// full snapshot to all standing subscriptions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed implementations of the persistence
// repositories together with collection feeds.
type Store struct {
	db  *sql.DB
	hub *hub
}

// Open opens the SQLite database at the given DSN and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc.org/sqlite serializes writes internally; a single connection
	// avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	store := &Store{db: db, hub: newHub()}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close tears down all feeds and closes the database.
func (s *Store) Close() error {
	s.hub.closeAll()
	return s.db.Close()
}

// migrations are applied in order; PRAGMA user_version records progress.
var migrations = []string{
	`CREATE TABLE clients (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		notes      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE TABLE sessions (
		id            TEXT PRIMARY KEY,
		client_id     TEXT NOT NULL,
		client_name   TEXT NOT NULL,
		start_at      TEXT NOT NULL,
		end_at        TEXT NOT NULL,
		hours         REAL NOT NULL,
		owner_user_id TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX idx_sessions_owner ON sessions (owner_user_id);`,
	`CREATE TABLE operators (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);
	CREATE TABLE auth_sessions (
		id          TEXT PRIMARY KEY,
		operator_id TEXT NOT NULL,
		token       TEXT NOT NULL UNIQUE,
		expires_at  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		revoked_at  TEXT
	);
	CREATE INDEX idx_auth_sessions_token ON auth_sessions (token);`,
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
