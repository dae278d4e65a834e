package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested run doesn't exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (or creates) the run-history database at dbPath
// and applies any pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) querier() querier {
	return s.db
}

const runColumns = `id, repo_path, kinds, revision_from, revision_to, status,
       files_scanned, files_included, files_excluded, total_size_bytes,
       lines_added, lines_removed, truncated, duration_ms, created_at`

// recordRunWithQuerier is the internal implementation that uses a querier.
func (s *SQLiteStore) recordRunWithQuerier(ctx context.Context, q querier, run *Run) error {
	query := `
		INSERT INTO analysis_runs (
			repo_path, kinds, revision_from, revision_to, status,
			files_scanned, files_included, files_excluded, total_size_bytes,
			lines_added, lines_removed, truncated, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		run.RepoPath, run.Kinds, run.RevisionFrom, run.RevisionTo, run.Status,
		run.FilesScanned, run.FilesIncluded, run.FilesExcluded, run.TotalSizeBytes,
		run.LinesAdded, run.LinesRemoved, run.Truncated, run.DurationMS, now)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id
	run.CreatedAt = now
	return nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	return s.recordRunWithQuerier(ctx, s.querier(), run)
}

func scanRun(row interface{ Scan(...interface{}) error }) (*Run, error) {
	var run Run
	err := row.Scan(
		&run.ID, &run.RepoPath, &run.Kinds, &run.RevisionFrom, &run.RevisionTo,
		&run.Status, &run.FilesScanned, &run.FilesIncluded, &run.FilesExcluded,
		&run.TotalSizeBytes, &run.LinesAdded, &run.LinesRemoved, &run.Truncated,
		&run.DurationMS, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// getRunWithQuerier is the internal implementation that uses a querier.
func (s *SQLiteStore) getRunWithQuerier(ctx context.Context, q querier, runID int64) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE id = ?`
	run, err := scanRun(q.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID int64) (*Run, error) {
	return s.getRunWithQuerier(ctx, s.querier(), runID)
}

// listRunsWithQuerier is the internal implementation that uses a querier.
func (s *SQLiteStore) listRunsWithQuerier(ctx context.Context, q querier, filter RunFilter) ([]*Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + runColumns + ` FROM analysis_runs`
	args := make([]interface{}, 0, 2)
	if filter.RepoPath != "" {
		query += ` WHERE repo_path = ?`
		args = append(args, filter.RepoPath)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	return s.listRunsWithQuerier(ctx, s.querier(), filter)
}

// pruneRunsWithQuerier is the internal implementation that uses a querier.
func (s *SQLiteStore) pruneRunsWithQuerier(ctx context.Context, q querier, before time.Time) (int, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM analysis_runs WHERE created_at < ?`, before)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *SQLiteStore) PruneRuns(ctx context.Context, before time.Time) (int, error) {
	return s.pruneRunsWithQuerier(ctx, s.querier(), before)
}
