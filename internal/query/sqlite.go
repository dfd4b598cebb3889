package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Go2GateSpectra/internal/config"

	_ "modernc.org/sqlite"
)

// DefaultSQLitePath matches the default file of the sqlite report writer.
const DefaultSQLitePath = "output/gatespectra.db"

type sqliteQuerier struct {
	db *sql.DB
}

// NewSQLiteQuerier opens the report database written by the sqlite writer.
func NewSQLiteQuerier(cfg config.SQLiteConfig) (Querier, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultSQLitePath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &sqliteQuerier{db: db}, nil
}

func (q *sqliteQuerier) Close() error { return q.db.Close() }

func (q *sqliteQuerier) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, generated_at FROM runs ORDER BY generated_at DESC, run_id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var generated string
		if err := rows.Scan(&r.RunID, &generated); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.GeneratedAt, err = time.Parse(time.RFC3339, generated); err != nil {
			return nil, fmt.Errorf("run %s has bad timestamp: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// resolveRun returns f.RunID, or the latest stored run when it is empty.
func (q *sqliteQuerier) resolveRun(ctx context.Context, f Filter) (string, error) {
	if f.RunID != "" {
		return f.RunID, nil
	}
	runs, err := q.ListRuns(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[0].RunID, nil
}

// where builds the filter clause. nameColumn is the column Filter.Name matches.
func where(runID string, f Filter, nameColumn string) (string, []interface{}) {
	clauses := []string{"run_id = ?"}
	args := []interface{}{runID}
	if f.Task != "" {
		clauses = append(clauses, "task = ?")
		args = append(args, f.Task)
	}
	if f.Dataset != "" {
		clauses = append(clauses, "dataset = ?")
		args = append(args, f.Dataset)
	}
	if f.Name != "" {
		clauses = append(clauses, nameColumn+" = ?")
		args = append(args, f.Name)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (q *sqliteQuerier) Stats(ctx context.Context, f Filter) (string, []StatRow, error) {
	runID, err := q.resolveRun(ctx, f)
	if err != nil {
		return "", nil, err
	}
	clause, args := where(runID, f, "metric")
	rows, err := q.db.QueryContext(ctx,
		`SELECT task, dataset, grp, class, metric, count, min, max, mean, stddev FROM stats`+clause+
			` ORDER BY rowid`, args...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var s StatRow
		if err := rows.Scan(&s.Task, &s.Dataset, &s.Group, &s.Class, &s.Metric,
			&s.Summary.Count, &s.Summary.Min, &s.Summary.Max, &s.Summary.Mean, &s.Summary.StdDev); err != nil {
			return "", nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		out = append(out, s)
	}
	return runID, out, rows.Err()
}

func (q *sqliteQuerier) Scalars(ctx context.Context, f Filter) (string, []ScalarRow, error) {
	runID, err := q.resolveRun(ctx, f)
	if err != nil {
		return "", nil, err
	}
	clause, args := where(runID, f, "name")
	rows, err := q.db.QueryContext(ctx, `SELECT task, dataset, name, value FROM scalars`+clause+` ORDER BY rowid`, args...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []ScalarRow
	for rows.Next() {
		var s ScalarRow
		if err := rows.Scan(&s.Task, &s.Dataset, &s.Name, &s.Value); err != nil {
			return "", nil, fmt.Errorf("failed to scan scalar: %w", err)
		}
		out = append(out, s)
	}
	return runID, out, rows.Err()
}

func (q *sqliteQuerier) Series(ctx context.Context, f Filter) (string, []SeriesRow, error) {
	runID, err := q.resolveRun(ctx, f)
	if err != nil {
		return "", nil, err
	}
	clause, args := where(runID, f, "name")
	rows, err := q.db.QueryContext(ctx,
		`SELECT task, dataset, name, bucket_size, start, value FROM series_points`+clause+
			` ORDER BY task, dataset, name, start`, args...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []SeriesRow
	for rows.Next() {
		var task, dataset, name string
		var bucketSize, start int64
		var value float64
		if err := rows.Scan(&task, &dataset, &name, &bucketSize, &start, &value); err != nil {
			return "", nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		out = appendSeriesPoint(out, task, dataset, name, bucketSize, start, value)
	}
	return runID, out, rows.Err()
}
