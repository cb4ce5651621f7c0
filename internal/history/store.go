// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists finished pipeline runs: a SQLite database with
// one row per run and one row per result record, plus a YAML manifest
// written next to each run's artifacts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/usecase-engine/internal/pipeline"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

const defaultListLimit = 20

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			entity_name TEXT NOT NULL,
			domain TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			aborted_step TEXT,
			summary TEXT NOT NULL,
			failed_calls INTEGER NOT NULL DEFAULT 0,
			steps TEXT,
			artifacts TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			category TEXT NOT NULL,
			query TEXT,
			title TEXT,
			snippet TEXT,
			url TEXT NOT NULL,
			source TEXT,
			is_error INTEGER NOT NULL DEFAULT 0,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ArtifactRef names a stored artifact.
type ArtifactRef struct {
	Format   types.Format `json:"format" yaml:"format"`
	FileName string       `json:"file_name" yaml:"file_name"`
	Location string       `json:"location,omitempty" yaml:"location,omitempty"`
	Size     int          `json:"size" yaml:"size"`
}

// Run is one row of the runs table.
type Run struct {
	ID          string                         `json:"id" yaml:"id"`
	Request     types.ResearchRequest          `json:"request" yaml:"request"`
	StartedAt   time.Time                      `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time                      `json:"finished_at" yaml:"finished_at"`
	AbortedStep string                         `json:"aborted_step,omitempty" yaml:"aborted_step,omitempty"`
	Summary     string                         `json:"summary" yaml:"summary"`
	FailedCalls int                            `json:"failed_calls" yaml:"failed_calls"`
	Steps       map[string]pipeline.StepStatus `json:"steps,omitempty" yaml:"steps,omitempty"`
	Artifacts   []ArtifactRef                  `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// RunDetail is a run with its records in planner order.
type RunDetail struct {
	Run
	Records []types.ResultRecord `json:"records" yaml:"records"`
}

// Refs describes res's artifacts; locations[i] is where artifact i was
// stored, if known.
func Refs(res *pipeline.Result, locations []string) []ArtifactRef {
	refs := make([]ArtifactRef, len(res.Artifacts))
	for i, a := range res.Artifacts {
		refs[i] = ArtifactRef{Format: a.Format, FileName: a.SuggestedFileName, Size: len(a.Bytes)}
		if i < len(locations) {
			refs[i].Location = locations[i]
		}
	}
	return refs
}

// encodeColumn renders v as the JSON text stored in a TEXT column.
func encodeColumn(name string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	return string(data), nil
}

// Save records a finished run, replacing any earlier row with the same ID.
func (s *Store) Save(ctx context.Context, res *pipeline.Result, artifacts []ArtifactRef) error {
	if res == nil {
		return errors.New("nil result")
	}
	stepsJSON, err := encodeColumn("steps", res.Steps)
	if err != nil {
		return err
	}
	artifactsJSON, err := encodeColumn("artifacts", artifacts)
	if err != nil {
		return err
	}
	aborted, _, _ := res.Aborted()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE run_id = ?`, res.RunID); err != nil {
		return fmt.Errorf("deleting old records: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, entity_name, domain, started_at, finished_at, aborted_step, summary, failed_calls, steps, artifacts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			entity_name=excluded.entity_name, domain=excluded.domain,
			started_at=excluded.started_at, finished_at=excluded.finished_at,
			aborted_step=excluded.aborted_step, summary=excluded.summary,
			failed_calls=excluded.failed_calls, steps=excluded.steps, artifacts=excluded.artifacts`,
		res.RunID, res.Request.EntityName, res.Request.Domain,
		formatTime(res.StartedAt), formatTime(res.FinishedAt), aborted,
		res.Summary(), res.FailedCalls, stepsJSON, artifactsJSON,
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, position, category, query, title, snippet, url, source, is_error, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range res.ResultSet.Records() {
		_, err := stmt.ExecContext(ctx,
			res.RunID, i, string(r.Category), r.Query, r.Title, r.Snippet,
			r.URL, string(r.Source), r.IsError, r.ErrorMessage,
		)
		if err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// List returns the most recent runs, newest first. limit <= 0 selects 20.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_name, domain, started_at, finished_at, aborted_step, summary, failed_calls, steps, artifacts
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run with its records, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*RunDetail, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, entity_name, domain, started_at, finished_at, aborted_step, summary, failed_calls, steps, artifacts
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Run: run, Records: []types.ResultRecord{}}
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, query, title, snippet, url, source, is_error, error_message
		 FROM records WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                                 types.ResultRecord
			category, source                  string
			query, title, snippet, errMessage sql.NullString
		)
		if err := rows.Scan(&category, &query, &title, &snippet, &r.URL, &source, &r.IsError, &errMessage); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Category = types.Category(category)
		r.Source = types.Provider(source)
		r.Query, r.Title, r.Snippet, r.ErrorMessage = query.String, title.String, snippet.String, errMessage.String
		detail.Records = append(detail.Records, r)
	}
	return detail, rows.Err()
}

// SearchRecords returns non-error records whose title or snippet contains
// term, newest run first.
func (s *Store) SearchRecords(ctx context.Context, term string, limit int) ([]types.ResultRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term is empty")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	pattern := "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.category, r.query, r.title, r.snippet, r.url, r.source
		 FROM records r JOIN runs ON runs.id = r.run_id
		 WHERE r.is_error = 0 AND (r.title LIKE ? ESCAPE '\' OR r.snippet LIKE ? ESCAPE '\')
		 ORDER BY runs.started_at DESC, r.position LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	out := []types.ResultRecord{}
	for rows.Next() {
		var (
			r                     types.ResultRecord
			category, source      string
			query, title, snippet sql.NullString
		)
		if err := rows.Scan(&category, &query, &title, &snippet, &r.URL, &source); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Category = types.Category(category)
		r.Source = types.Provider(source)
		r.Query, r.Title, r.Snippet = query.String, title.String, snippet.String
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                           Run
		started                       string
		finished, aborted, steps, art sql.NullString
	)
	err := sc.Scan(&run.ID, &run.Request.EntityName, &run.Request.Domain, &started, &finished,
		&aborted, &run.Summary, &run.FailedCalls, &steps, &art)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished.String)
	run.AbortedStep = aborted.String
	if steps.String != "" {
		if err := json.Unmarshal([]byte(steps.String), &run.Steps); err != nil {
			return Run{}, fmt.Errorf("decoding steps of run %s: %w", run.ID, err)
		}
	}
	if art.String != "" && art.String != "null" {
		if err := json.Unmarshal([]byte(art.String), &run.Artifacts); err != nil {
			return Run{}, fmt.Errorf("decoding artifacts of run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
