// Package history persists completed test runs in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/funnelcheck/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so started_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// connParams are the go-sqlite3 DSN options every connection opens with.
const connParams = "_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded test run.
type Run struct {
	RunID     string
	Test      string
	TargetURL string
	Passed    bool
	StartedAt time.Time
	Duration  time.Duration
	Errors    int
	Report    []byte // only populated by Get
}

// Status returns PASSED or FAILED.
func (r Run) Status() string {
	if r.Passed {
		return models.StatusPassed
	}
	return models.StatusFailed
}

// Stats summarizes the recorded runs of one test.
type Stats struct {
	Total  int
	Passed int
}

// PassRate is Passed/Total, or 0 with no runs.
func (s Stats) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Store manages the run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Open opens or creates the database at dbPath and applies pending
// migrations. ":memory:" gives a private in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// busy_timeout is set on connect, before the journal mode switch.
	db, err := sql.Open("sqlite3", dbPath+"?"+connParams)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection, and each ":memory:" connection is its own
	// database, so the pool holds exactly one.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a finished run. An empty RunID is filled with NewRunID;
// the id actually used is returned.
func (s *Store) Record(ctx context.Context, r models.RunResult) (string, error) {
	if r.Test == "" {
		return "", fmt.Errorf("record run: test name is required")
	}
	if r.RunID == "" {
		r.RunID = NewRunID()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	report := string(r.Report)
	if report == "" {
		report = "{}"
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs
		(run_id, test, target_url, passed, started_at, duration_ms, error_count, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Test, r.TargetURL, r.Passed,
		r.StartedAt.UTC().Format(timeLayout),
		r.Duration.Milliseconds(), r.Errors, report,
	)
	if err != nil {
		return "", fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return r.RunID, nil
}

// List returns the most recent runs first. An empty test matches every
// test; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, test string, limit int) ([]Run, error) {
	query := `SELECT run_id, test, target_url, passed, started_at, duration_ms, error_count
		FROM runs`
	var args []any
	if test != "" {
		query += ` WHERE test = ?`
		args = append(args, test)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns one run including its JSON report.
func (s *Store) Get(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, test, target_url, passed, started_at,
		duration_ms, error_count, report FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// Stats counts recorded and passing runs, optionally for one test.
func (s *Store) Stats(ctx context.Context, test string) (Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) FROM runs`
	var args []any
	if test != "" {
		query += ` WHERE test = ?`
		args = append(args, test)
	}
	var st Stats
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&st.Total, &st.Passed); err != nil {
		return Stats{}, fmt.Errorf("run stats: %w", err)
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, withReport bool) (Run, error) {
	var (
		run        Run
		startedAt  string
		durationMS int64
		report     string
	)
	dest := []any{&run.RunID, &run.Test, &run.TargetURL, &run.Passed, &startedAt, &durationMS, &run.Errors}
	if withReport {
		dest = append(dest, &report)
	}
	if err := sc.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	ts, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at of run %s: %w", run.RunID, err)
	}
	run.StartedAt = ts
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if withReport {
		run.Report = []byte(report)
	}
	return run, nil
}
