// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists search lookups and check runs in SQLite. Lookups
// act as a TTL cache in front of the search backends; runs and their
// verdicts form a history that can be searched with FTS5.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/vericite/internal/search"
	"github.com/pdiddy/vericite/pkg/types"
)

const dbFile = "vericite.db"

// timeLayout is fixed-width so stored UTC timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultPath returns ~/.cache/vericite/vericite.db, falling back to the
// working directory when no cache directory is known.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return dbFile
	}
	return filepath.Join(dir, "vericite", dbFile)
}

// Store wraps the vericite SQLite database.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates the database at cfg.Path (DefaultPath when empty)
// and ensures the schema exists. A zero TTL never expires lookups.
func Open(cfg types.CacheConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Validator workers share this handle; one connection keeps writes
	// serialized.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, ttl: cfg.TTL, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			backend TEXT NOT NULL,
			query_key TEXT NOT NULL,
			found INTEGER NOT NULL,
			doi TEXT,
			title TEXT,
			score REAL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (backend, query_key)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			references_page INTEGER,
			stage TEXT,
			strategy TEXT,
			candidates INTEGER,
			verified INTEGER,
			unverified INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS verdicts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			verified INTEGER NOT NULL,
			reason TEXT NOT NULL,
			score REAL,
			doi TEXT,
			title TEXT,
			detail TEXT,
			page INTEGER,
			method TEXT,
			backend TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_run_id ON verdicts(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='verdicts_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE verdicts_fts USING fts5(text, title, content=verdicts, content_rowid=rowid)`,
		`CREATE TRIGGER verdicts_ai AFTER INSERT ON verdicts BEGIN
			INSERT INTO verdicts_fts(rowid, text, title) VALUES (new.rowid, new.text, new.title);
		END`,
		`CREATE TRIGGER verdicts_ad AFTER DELETE ON verdicts BEGIN
			INSERT INTO verdicts_fts(verdicts_fts, rowid, text, title) VALUES('delete', old.rowid, old.text, old.title);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Lookup returns the remembered answer for query from backend. ok is false
// when nothing is stored or the entry is older than the TTL. An ok result
// with no matches is a remembered "no match".
func (s *Store) Lookup(ctx context.Context, backend, query string) ([]search.Match, bool, error) {
	var (
		found     bool
		doi       sql.NullString
		title     sql.NullString
		score     sql.NullFloat64
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT found, doi, title, score, updated_at FROM lookups WHERE backend = ? AND query_key = ?`,
		backend, search.NormalizeQuery(query),
	).Scan(&found, &doi, &title, &score, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading lookup: %w", err)
	}

	if s.ttl > 0 {
		t, err := time.Parse(timeLayout, updatedAt)
		if err != nil || s.now().Sub(t) > s.ttl {
			return nil, false, nil
		}
	}

	if !found {
		return []search.Match{}, true, nil
	}
	return []search.Match{{Score: score.Float64, DOI: doi.String, Title: title.String}}, true, nil
}

// Remember stores the best of matches (or the absence of one) for query.
func (s *Store) Remember(ctx context.Context, backend, query string, matches []search.Match) error {
	var m search.Match
	found := len(matches) > 0
	if found {
		m = matches[0]
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (backend, query_key, found, doi, title, score, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(backend, query_key) DO UPDATE SET
			found=excluded.found, doi=excluded.doi, title=excluded.title,
			score=excluded.score, updated_at=excluded.updated_at`,
		backend, search.NormalizeQuery(query), found, m.DOI, m.Title, m.Score,
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("writing lookup: %w", err)
	}
	return nil
}

// Prune deletes lookups older than the TTL and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM lookups WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning lookups: %w", err)
	}
	return res.RowsAffected()
}

// ftsQuery turns free text into an FTS5 query of quoted terms so user
// input never hits FTS syntax errors.
func ftsQuery(text string) string {
	var terms []string
	for _, f := range strings.Fields(search.NormalizeQuery(text)) {
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " ")
}
