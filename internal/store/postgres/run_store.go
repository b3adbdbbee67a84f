// Package postgres provides the Postgres-backed run store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopmigrate/internal/migrate"
)

// ErrNotFound is returned when a run ID has no row.
var ErrNotFound = fmt.Errorf("run not found")

// Config controls the Postgres connection pool used for run metadata.
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// RunStore persists runs and page records in Postgres.
type RunStore struct {
	pool db
}

// New creates a Postgres-backed RunStore using the provided config.
func New(ctx context.Context, cfg Config) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing).
func NewWithPool(pool db) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RunStore{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *RunStore) Close() {
	s.pool.Close()
}

// CreateRun inserts a new run row.
func (s *RunStore) CreateRun(ctx context.Context, run migrate.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	params, err := json.Marshal(run.Parameters)
	if err != nil {
		return fmt.Errorf("marshal run parameters: %w", err)
	}

	query := `
		INSERT INTO migration_runs (id, status, submitted_at, parameters)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := s.pool.Exec(ctx, query, run.ID, run.Status, run.Submitted, params); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunStatus transitions a run's status and records its counters and
// artifact URIs.
func (s *RunStore) UpdateRunStatus(
	ctx context.Context,
	runID string,
	status migrate.RunStatus,
	errText string,
	counters migrate.RunCounters,
	artifacts migrate.RunArtifacts,
) error {
	query := `
		UPDATE migration_runs
		SET status = $1,
			error_text = NULLIF($2, ''),
			pages_crawled = $3,
			products = $4,
			matched = $5,
			unmatched = $6,
			redirects_uri = NULLIF($7, ''),
			diagnostics_uri = NULLIF($8, ''),
			products_uri = NULLIF($9, ''),
			started_at = CASE WHEN $1 = 'running' THEN now() ELSE started_at END,
			finished_at = CASE WHEN $1 IN ('succeeded', 'failed') THEN now() ELSE finished_at END
		WHERE id = $10;
	`
	res, err := s.pool.Exec(ctx, query,
		status,
		errText,
		counters.PagesCrawled,
		counters.Products,
		counters.Matched,
		counters.Unmatched,
		artifacts.RedirectsURI,
		artifacts.DiagnosticsURI,
		artifacts.ProductsURI,
		runID,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordPage inserts one page record for a run.
func (s *RunStore) RecordPage(ctx context.Context, page migrate.PageRecord) error {
	query := `
		INSERT INTO migration_pages (run_id, url, page_type, title, content_hash, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := s.pool.Exec(ctx, query,
		page.RunID,
		page.URL,
		page.PageType,
		page.Title,
		page.ContentHash,
		page.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page record: %w", err)
	}
	return nil
}

// GetRun retrieves a single run by its ID.
func (s *RunStore) GetRun(ctx context.Context, runID string) (migrate.Run, error) {
	query := `
		SELECT id, status, submitted_at, started_at, finished_at,
			COALESCE(error_text, ''), parameters,
			pages_crawled, products, matched, unmatched,
			COALESCE(redirects_uri, ''), COALESCE(diagnostics_uri, ''), COALESCE(products_uri, '')
		FROM migration_runs
		WHERE id = $1;
	`
	var (
		run    migrate.Run
		params []byte
	)
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&run.ID,
		&run.Status,
		&run.Submitted,
		&run.Started,
		&run.Finished,
		&run.ErrorText,
		&params,
		&run.Counters.PagesCrawled,
		&run.Counters.Products,
		&run.Counters.Matched,
		&run.Counters.Unmatched,
		&run.Artifacts.RedirectsURI,
		&run.Artifacts.DiagnosticsURI,
		&run.Artifacts.ProductsURI,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return migrate.Run{}, ErrNotFound
		}
		return migrate.Run{}, fmt.Errorf("get run: %w", err)
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &run.Parameters); err != nil {
			return migrate.Run{}, fmt.Errorf("unmarshal run parameters: %w", err)
		}
	}
	return run, nil
}

// ListPages retrieves a run's page records ordered by fetch time.
func (s *RunStore) ListPages(ctx context.Context, runID string) ([]migrate.PageRecord, error) {
	query := `
		SELECT run_id, url, page_type, title, content_hash, fetched_at
		FROM migration_pages
		WHERE run_id = $1
		ORDER BY fetched_at;
	`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []migrate.PageRecord
	for rows.Next() {
		var page migrate.PageRecord
		err := rows.Scan(
			&page.RunID,
			&page.URL,
			&page.PageType,
			&page.Title,
			&page.ContentHash,
			&page.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan page row: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}
