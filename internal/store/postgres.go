package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dmryasin/compval/internal/db"
	"github.com/dmryasin/compval/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	subject    JSONB NOT NULL,
	sources    JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_comparables (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	source_id   INTEGER NOT NULL,
	source_path TEXT NOT NULL,
	area_m2     DOUBLE PRECISION,
	unit_price  DOUBLE PRECISION,
	total_price DOUBLE PRECISION,
	error       TEXT,
	fields      JSONB,
	PRIMARY KEY (run_id, source_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_run_comparables_run_id ON run_comparables(run_id);
`

// comparableColumns is the run_comparables column order used by the bulk
// upsert in CompleteRun.
var comparableColumns = []string{
	"run_id", "source_id", "source_path", "area_m2", "unit_price", "total_price", "error", "fields",
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, subject model.Subject, sources []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	subjectJSON, err := json.Marshal(subject)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal subject")
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal sources")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, subject, sources, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, subjectJSON, sourcesJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Subject:   subject,
		Sources:   sources,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.AppraisalResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}

	rows := make([][]any, 0, len(result.Comparables))
	for _, c := range result.Comparables {
		fieldsJSON, err := json.Marshal(c.Fields)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal fields for comparable %d", c.SourceID)
		}
		var errVal any
		if c.Error != "" {
			errVal = c.Error
		}
		rows = append(rows, []any{
			runID, c.SourceID, c.SourcePath, c.Area, c.UnitPrice, c.TotalPrice, errVal, fieldsJSON,
		})
	}

	_, err = db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "run_comparables",
		Columns:      comparableColumns,
		ConflictKeys: []string{"run_id", "source_id"},
	}, rows)
	return eris.Wrapf(err, "postgres: upsert comparables for run %s", runID)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), cause, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, subject, sources, status, result, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPostgresRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, subject, sources, status, result, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) RunComparables(ctx context.Context, runID string) ([]model.Comparable, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source_id, source_path, area_m2, unit_price, total_price, error, fields
		 FROM run_comparables WHERE run_id = $1 ORDER BY source_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: comparables for run %s", runID)
	}
	defer rows.Close()

	var comps []model.Comparable
	for rows.Next() {
		var c model.Comparable
		var errText *string
		var fieldsJSON []byte
		if err := rows.Scan(&c.SourceID, &c.SourcePath, &c.Area, &c.UnitPrice, &c.TotalPrice, &errText, &fieldsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan comparable")
		}
		if errText != nil {
			c.Error = *errText
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &c.Fields); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal comparable fields")
			}
		}
		comps = append(comps, c)
	}
	return comps, eris.Wrap(rows.Err(), "postgres: comparables iterate")
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var subjectJSON, sourcesJSON []byte
	var resultJSON *[]byte
	var errText *string

	err := row.Scan(&r.ID, &subjectJSON, &sourcesJSON, &r.Status, &resultJSON, &errText, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(subjectJSON, &r.Subject); err != nil {
		return nil, eris.Wrap(err, "unmarshal subject")
	}
	if err := json.Unmarshal(sourcesJSON, &r.Sources); err != nil {
		return nil, eris.Wrap(err, "unmarshal sources")
	}
	if resultJSON != nil {
		r.Result = &model.AppraisalResult{}
		if err := json.Unmarshal(*resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal result")
		}
	}
	if errText != nil {
		r.Error = *errText
	}
	return &r, nil
}
