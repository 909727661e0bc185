package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dmryasin/compval/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	subject    TEXT NOT NULL,
	sources    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_comparables (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	source_id   INTEGER NOT NULL,
	source_path TEXT NOT NULL,
	area_m2     REAL,
	unit_price  REAL,
	total_price REAL,
	error       TEXT,
	fields      TEXT,
	PRIMARY KEY (run_id, source_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_run_comparables_run_id ON run_comparables(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, subject model.Subject, sources []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	subjectJSON, err := json.Marshal(subject)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal subject")
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal sources")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, subject, sources, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(subjectJSON), string(sourcesJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.AppraisalResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	if err := checkRowsAffected(res, "run", runID); err != nil {
		return err
	}

	// Re-completing a run replaces its comparable rows.
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_comparables WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear comparables for run %s", runID)
	}
	for _, c := range result.Comparables {
		fieldsJSON, err := json.Marshal(c.Fields)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal fields for comparable %d", c.SourceID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_comparables (run_id, source_id, source_path, area_m2, unit_price, total_price, error, fields)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.SourceID, c.SourcePath, c.Area, c.UnitPrice, c.TotalPrice, nullableString(c.Error), string(fieldsJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert comparable %d for run %s", c.SourceID, runID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit complete run")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), cause, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, sources, status, result, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, subject, sources, status, result, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) RunComparables(ctx context.Context, runID string) ([]model.Comparable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, source_path, area_m2, unit_price, total_price, error, fields
		 FROM run_comparables WHERE run_id = ? ORDER BY source_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: comparables for run %s", runID)
	}
	defer rows.Close()

	var comps []model.Comparable
	for rows.Next() {
		var c model.Comparable
		var errText sql.NullString
		var fieldsJSON sql.NullString
		if err := rows.Scan(&c.SourceID, &c.SourcePath, &c.Area, &c.UnitPrice, &c.TotalPrice, &errText, &fieldsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan comparable")
		}
		c.Error = errText.String
		if fieldsJSON.Valid && fieldsJSON.String != "null" {
			if err := json.Unmarshal([]byte(fieldsJSON.String), &c.Fields); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal comparable fields")
			}
		}
		comps = append(comps, c)
	}
	return comps, eris.Wrap(rows.Err(), "sqlite: comparables iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var subjectJSON, sourcesJSON string
	var resultJSON, errText sql.NullString

	err := row.Scan(&r.ID, &subjectJSON, &sourcesJSON, &r.Status, &resultJSON, &errText, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(subjectJSON), &r.Subject); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal subject")
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &r.Sources); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sources")
	}
	if resultJSON.Valid {
		r.Result = &model.AppraisalResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	r.Error = errText.String
	return &r, nil
}
