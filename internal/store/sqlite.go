package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/geomatics-io/landstat/internal/aggregate"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
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
	id          TEXT PRIMARY KEY,
	dataset     TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS area_totals (
	run_id TEXT NOT NULL REFERENCES runs(id),
	region TEXT NOT NULL,
	key    TEXT NOT NULL,
	km2    REAL NOT NULL,
	PRIMARY KEY (run_id, region, key)
);

CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset);
CREATE INDEX IF NOT EXISTS idx_area_totals_run_id ON area_totals(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, dataset string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Dataset:   dataset,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, dataset, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Dataset, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID,
	)
	return eris.Wrap(err, "sqlite: finish run")
}

func (s *SQLiteStore) SaveTotals(ctx context.Context, runID string, m *aggregate.Matrix) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin totals")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO area_totals (run_id, region, key, km2) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare totals")
	}
	defer stmt.Close()

	columns := m.Columns()
	for _, region := range m.Regions() {
		for i, km2 := range m.Row(region) {
			if _, err := stmt.ExecContext(ctx, runID, region, columns[i], km2); err != nil {
				return eris.Wrap(err, "sqlite: insert total")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit totals")
	}
	return nil
}

func (s *SQLiteStore) Totals(ctx context.Context, runID string) ([]Total, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, region, key, km2 FROM area_totals WHERE run_id = ? ORDER BY region, key`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query totals")
	}
	defer rows.Close()

	var totals []Total
	for rows.Next() {
		var t Total
		if err := rows.Scan(&t.RunID, &t.Region, &t.Key, &t.Km2); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan total")
		}
		totals = append(totals, t)
	}
	return totals, eris.Wrap(rows.Err(), "sqlite: iterate totals")
}

func (s *SQLiteStore) LatestRun(ctx context.Context, dataset string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, status, started_at, finished_at
		 FROM runs WHERE dataset = ? ORDER BY started_at DESC LIMIT 1`,
		dataset,
	)
	var run Run
	if err := row.Scan(&run.ID, &run.Dataset, &run.Status, &run.StartedAt, &run.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	return &run, nil
}
