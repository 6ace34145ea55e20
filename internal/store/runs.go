// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/vericite/pkg/types"
)

// Run is one completed check of a document, as recorded in history.
type Run struct {
	ID             int64     `json:"id" yaml:"id"`
	Source         string    `json:"source" yaml:"source"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	ReferencesPage int       `json:"references_page" yaml:"references_page"`
	Stage          string    `json:"stage" yaml:"stage"`
	Strategy       string    `json:"strategy" yaml:"strategy"`
	Candidates     int       `json:"candidates" yaml:"candidates"`
	Verified       int       `json:"verified" yaml:"verified"`
	Unverified     int       `json:"unverified" yaml:"unverified"`

	Verdicts []types.ValidationVerdict `json:"verdicts,omitempty" yaml:"verdicts,omitempty"`
}

// VerdictHit is a past verdict returned by SearchVerdicts.
type VerdictHit struct {
	RunID     int64     `json:"run_id" yaml:"run_id"`
	Source    string    `json:"source" yaml:"source"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	types.ValidationVerdict `yaml:",inline"`
}

// RecordRun stores run and its verdicts in one transaction and returns the
// new run ID.
func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, started_at, references_page, stage, strategy, candidates, verified, unverified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Source, run.StartedAt.UTC().Format(timeLayout), run.ReferencesPage, run.Stage,
		run.Strategy, run.Candidates, run.Verified, run.Unverified,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdicts (run_id, position, text, verified, reason, score, doi, title, detail, page, method, backend)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, v := range run.Verdicts {
		_, err := stmt.ExecContext(ctx,
			id, i, v.CitationText, v.IsVerified, string(v.Reason), v.ConfidenceScore,
			v.MatchedDOI, v.MatchedTitle, v.Detail, v.OriginPage, string(v.Method), v.Backend,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting verdict %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first, without verdicts.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_at, references_page, stage, strategy, candidates, verified, unverified
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			startedAt string
			stage     sql.NullString
			strategy  sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Source, &startedAt, &r.ReferencesPage, &stage, &strategy,
			&r.Candidates, &r.Verified, &r.Unverified); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		r.Stage = stage.String
		r.Strategy = strategy.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunVerdicts returns the verdicts recorded for run id in their original order.
func (s *Store) RunVerdicts(ctx context.Context, id int64) ([]types.ValidationVerdict, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text, verified, reason, score, doi, title, detail, page, method, backend
		 FROM verdicts WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying verdicts: %w", err)
	}
	defer rows.Close()

	var out []types.ValidationVerdict
	for rows.Next() {
		v, err := scanVerdict(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SearchVerdicts runs a full-text search over recorded citation text and
// matched titles, best match first.
func (s *Store) SearchVerdicts(ctx context.Context, query string, limit int) ([]VerdictHit, error) {
	q := ftsQuery(query)
	if q == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.source, r.started_at,
			v.text, v.verified, v.reason, v.score, v.doi, v.title, v.detail, v.page, v.method, v.backend
		 FROM verdicts_fts
		 JOIN verdicts v ON v.rowid = verdicts_fts.rowid
		 JOIN runs r ON r.id = v.run_id
		 WHERE verdicts_fts MATCH ?
		 ORDER BY verdicts_fts.rank
		 LIMIT ?`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("searching verdicts: %w", err)
	}
	defer rows.Close()

	var hits []VerdictHit
	for rows.Next() {
		var (
			h         VerdictHit
			startedAt string
		)
		v, err := scanVerdict(rows, &h.RunID, &h.Source, &startedAt)
		if err != nil {
			return nil, err
		}
		h.StartedAt, _ = time.Parse(timeLayout, startedAt)
		h.ValidationVerdict = v
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// scanVerdict scans the verdict columns, preceded by any extra destinations.
func scanVerdict(rows *sql.Rows, prefix ...any) (types.ValidationVerdict, error) {
	var (
		v      types.ValidationVerdict
		reason string
		method string
		doi    sql.NullString
		title  sql.NullString
		detail sql.NullString
		score  sql.NullFloat64
		back   sql.NullString
	)
	dest := append(prefix, &v.CitationText, &v.IsVerified, &reason, &score, &doi, &title, &detail,
		&v.OriginPage, &method, &back)
	if err := rows.Scan(dest...); err != nil {
		return v, fmt.Errorf("scanning verdict: %w", err)
	}
	v.Reason = types.ReasonCode(reason)
	v.Method = types.ExtractionMethod(method)
	v.ConfidenceScore = score.Float64
	v.MatchedDOI = doi.String
	v.MatchedTitle = title.String
	v.Detail = detail.String
	v.Backend = back.String
	return v, nil
}
