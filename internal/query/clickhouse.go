package query

import (
	"context"
	"fmt"
	"strings"

	"Go2GateSpectra/internal/config"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

func (q *clickhouseQuerier) Close() error { return q.conn.Close() }

func (q *clickhouseQuerier) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT RunID, GeneratedAt FROM gate_runs FINAL ORDER BY GeneratedAt DESC, RunID DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := q.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (q *clickhouseQuerier) resolveRun(ctx context.Context, f Filter) (string, error) {
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

// chWhere builds the filter clause over the capitalised report columns.
func chWhere(runID string, f Filter, nameColumn string) (string, []interface{}) {
	var queryBuilder strings.Builder
	whereClauses := []string{"RunID = ?"}
	args := []interface{}{runID}

	if f.Task != "" {
		whereClauses = append(whereClauses, "Task = ?")
		args = append(args, f.Task)
	}
	if f.Dataset != "" {
		whereClauses = append(whereClauses, "Dataset = ?")
		args = append(args, f.Dataset)
	}
	if f.Name != "" {
		whereClauses = append(whereClauses, nameColumn+" = ?")
		args = append(args, f.Name)
	}
	queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	return queryBuilder.String(), args
}

func (q *clickhouseQuerier) Stats(ctx context.Context, f Filter) (string, []StatRow, error) {
	runID, err := q.resolveRun(ctx, f)
	if err != nil {
		return "", nil, err
	}
	clause, args := chWhere(runID, f, "Metric")
	rows, err := q.conn.Query(ctx,
		`SELECT Task, Dataset, Grp, Class, Metric, Count, Min, Max, Mean, StdDev FROM gate_stats`+clause+
			` ORDER BY Task, Dataset, Grp, Class, Metric`, args...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var s StatRow
		var count uint64
		if err := rows.Scan(&s.Task, &s.Dataset, &s.Group, &s.Class, &s.Metric,
			&count, &s.Summary.Min, &s.Summary.Max, &s.Summary.Mean, &s.Summary.StdDev); err != nil {
			return "", nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		s.Summary.Count = int(count)
		out = append(out, s)
	}
	return runID, out, rows.Err()
}

func (q *clickhouseQuerier) Scalars(ctx context.Context, f Filter) (string, []ScalarRow, error) {
	runID, err := q.resolveRun(ctx, f)
	if err != nil {
		return "", nil, err
	}
	clause, args := chWhere(runID, f, "Name")
	rows, err := q.conn.Query(ctx, `SELECT Task, Dataset, Name, Value FROM gate_scalars`+clause+
		` ORDER BY Task, Dataset, Name`, args...)
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

func (q *clickhouseQuerier) Series(ctx context.Context, f Filter) (string, []SeriesRow, error) {
	runID, err := q.resolveRun(ctx, f)
	if err != nil {
		return "", nil, err
	}
	clause, args := chWhere(runID, f, "Name")
	rows, err := q.conn.Query(ctx,
		`SELECT Task, Dataset, Name, BucketSize, Start, Value FROM gate_series`+clause+
			` ORDER BY Task, Dataset, Name, Start`, args...)
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
