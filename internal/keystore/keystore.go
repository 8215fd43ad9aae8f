// Package keystore persists registry key tables (key → global id) in SQLite
// so the first loading phase can run without re-reading object documents.
package keystore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/specialistvlad/definer/internal/identity"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed set of key tables, one per registry name.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key store: %w", err)
	}
	// A single connection keeps ":memory:" stores coherent and serializes
	// writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate key store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS key_records (
		registry TEXT NOT NULL,
		key TEXT NOT NULL,
		global_id TEXT NOT NULL,
		PRIMARY KEY (registry, key),
		UNIQUE (registry, global_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the key table of registry with records.
func (s *Store) Save(ctx context.Context, registry string, records []identity.KeyRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM key_records WHERE registry = ?`, registry); err != nil {
		return fmt.Errorf("failed to clear registry %q: %w", registry, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO key_records (registry, key, global_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, registry, rec.Key, rec.ID.String()); err != nil {
			return fmt.Errorf("failed to save key %q of registry %q: %w", rec.Key, registry, err)
		}
	}
	return tx.Commit()
}

// Load returns the key table of registry ordered by key. An unknown registry
// yields no records.
func (s *Store) Load(ctx context.Context, registry string) ([]identity.KeyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, global_id FROM key_records
		WHERE registry = ?
		ORDER BY key
	`, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry %q: %w", registry, err)
	}
	defer rows.Close()

	var out []identity.KeyRecord
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan key record: %w", err)
		}
		id, err := identity.ParseGlobalID(raw)
		if err != nil {
			return nil, fmt.Errorf("registry %q key %q: %w", registry, key, err)
		}
		out = append(out, identity.KeyRecord{Key: key, ID: id})
	}
	return out, rows.Err()
}

// Registries returns the names of all stored registries, sorted.
func (s *Store) Registries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT registry FROM key_records ORDER BY registry`)
	if err != nil {
		return nil, fmt.Errorf("failed to query registries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan registry name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
