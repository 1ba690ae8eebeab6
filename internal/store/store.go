// Package store persists generation history and LoRA metadata in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"videod/internal/common/fsutil"
)

// Store is the SQLite-backed relational store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema. The parent directory is created when absent.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsutil.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	// WAL keeps the recorder from blocking readers during a write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prompt TEXT NOT NULL,
		steps INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		filename TEXT NOT NULL,
		generation_time REAL NOT NULL,
		file_size_kb REAL NOT NULL DEFAULT 0,
		model TEXT NOT NULL,
		precision TEXT NOT NULL DEFAULT '',
		seed INTEGER,
		cfg_scale REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		loras TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at);
	CREATE INDEX IF NOT EXISTS idx_generations_status ON generations(status);

	CREATE TABLE IF NOT EXISTS loras (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Ping verifies the connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
