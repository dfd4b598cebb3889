package writer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	_ "modernc.org/sqlite"
)

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = "output/gatespectra.db"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		generated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS datasets (
		run_id TEXT NOT NULL,
		label TEXT NOT NULL,
		path TEXT NOT NULL,
		raw_rows INTEGER NOT NULL,
		retained INTEGER NOT NULL,
		dropped INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		out_of_order INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		run_id TEXT NOT NULL,
		task TEXT NOT NULL,
		dataset TEXT NOT NULL,
		grp TEXT NOT NULL,
		class TEXT NOT NULL,
		metric TEXT NOT NULL,
		count INTEGER NOT NULL,
		min REAL NOT NULL,
		max REAL NOT NULL,
		mean REAL NOT NULL,
		stddev REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scalars (
		run_id TEXT NOT NULL,
		task TEXT NOT NULL,
		dataset TEXT NOT NULL,
		name TEXT NOT NULL,
		value REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS series_points (
		run_id TEXT NOT NULL,
		task TEXT NOT NULL,
		dataset TEXT NOT NULL,
		name TEXT NOT NULL,
		bucket_size INTEGER NOT NULL,
		start INTEGER NOT NULL,
		value REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stats_run ON stats(run_id, task)`,
	`CREATE INDEX IF NOT EXISTS idx_scalars_run ON scalars(run_id, task)`,
	`CREATE INDEX IF NOT EXISTS idx_series_run ON series_points(run_id, task, name)`,
}

// SQLiteWriter stores reports in a local SQLite database, one row set per run.
type SQLiteWriter struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSQLiteWriter opens (or creates) the database and ensures the schema exists.
func NewSQLiteWriter(cfg config.SQLiteConfig, log *logger.Logger) (*SQLiteWriter, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	w := &SQLiteWriter{db: db, log: log.Named("sqlite-writer")}
	if err := w.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	w.log.Info("SQLite report store ready", logger.String("path", path))
	return w, nil
}

func (w *SQLiteWriter) initDB() error {
	for _, stmt := range sqliteSchema {
		if _, err := w.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize sqlite schema: %w", err)
		}
	}
	return nil
}

func (w *SQLiteWriter) Name() string { return "sqlite" }

// Write stores the report in a single transaction. Writing the same run twice
// replaces the earlier rows.
func (w *SQLiteWriter) Write(rep *report.Report, timestamp string) error {
	ctx := context.Background()
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runID := rep.RunID
	for _, table := range []string{"datasets", "stats", "scalars", "series_points", "runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("failed to clear previous rows of %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (run_id, generated_at) VALUES (?, ?)`,
		runID, runTime(rep, timestamp).UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	for _, d := range rep.Datasets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO datasets (run_id, label, path, raw_rows, retained, dropped, skipped, out_of_order) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, d.Label, d.Path, d.RawRows, d.Retained, d.Dropped, d.Skipped, d.OutOfOrder); err != nil {
			return fmt.Errorf("failed to insert dataset: %w", err)
		}
	}

	rows := 0
	for _, sec := range rep.Sections {
		for _, s := range sec.Stats {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO stats (run_id, task, dataset, grp, class, metric, count, min, max, mean, stddev) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, sec.Task, s.Dataset, s.Group, s.Class, s.Metric,
				s.Summary.Count, s.Summary.Min, s.Summary.Max, s.Summary.Mean, s.Summary.StdDev); err != nil {
				return fmt.Errorf("failed to insert stat: %w", err)
			}
			rows++
		}
		for _, s := range sec.Scalars {
			if _, err := tx.ExecContext(ctx, `INSERT INTO scalars (run_id, task, dataset, name, value) VALUES (?, ?, ?, ?, ?)`,
				runID, sec.Task, s.Dataset, s.Name, s.Value); err != nil {
				return fmt.Errorf("failed to insert scalar: %w", err)
			}
			rows++
		}
		for _, s := range sec.Series {
			for i, start := range s.Starts {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO series_points (run_id, task, dataset, name, bucket_size, start, value) VALUES (?, ?, ?, ?, ?, ?, ?)`,
					runID, sec.Task, s.Dataset, s.Name, s.BucketSize, start, s.Values[i]); err != nil {
					return fmt.Errorf("failed to insert series point: %w", err)
				}
				rows++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	w.log.Info("Report stored in SQLite", logger.String("run_id", runID), logger.Int("rows", rows))
	return nil
}

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
