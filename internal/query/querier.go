// Package query reads stored analysis reports back from the sqlite or
// ClickHouse report stores.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/report"
)

// ErrNoRuns is returned when the store holds no run to default to.
var ErrNoRuns = errors.New("no runs stored")

// Run is one stored analysis run.
type Run struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Filter narrows a query. An empty RunID selects the latest run; other empty
// fields match everything.
type Filter struct {
	RunID   string
	Task    string
	Dataset string
	Name    string
}

// StatRow is a stored Stat with the task that produced it.
type StatRow struct {
	Task string `json:"task"`
	report.Stat
}

// ScalarRow is a stored Scalar with the task that produced it.
type ScalarRow struct {
	Task string `json:"task"`
	report.Scalar
}

// SeriesRow is a stored Series with the task that produced it.
type SeriesRow struct {
	Task string `json:"task"`
	report.Series
}

// Querier defines the interface for querying stored reports.
type Querier interface {
	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Stats(ctx context.Context, f Filter) (string, []StatRow, error)
	Scalars(ctx context.Context, f Filter) (string, []ScalarRow, error)
	Series(ctx context.Context, f Filter) (string, []SeriesRow, error)
	Close() error
}

// New opens the querier selected by source ("sqlite" or "clickhouse").
func New(source string, sqliteCfg config.SQLiteConfig, chCfg config.ClickHouseConfig) (Querier, error) {
	switch source {
	case "", "sqlite":
		return NewSQLiteQuerier(sqliteCfg)
	case "clickhouse":
		return NewClickHouseQuerier(chCfg)
	default:
		return nil, fmt.Errorf("unknown query source: %s", source)
	}
}

// appendSeriesPoint groups consecutive points of the same series into one row.
// Points must arrive ordered by task, dataset, name and start.
func appendSeriesPoint(rows []SeriesRow, task, dataset, name string, bucketSize, start int64, value float64) []SeriesRow {
	if n := len(rows); n > 0 {
		last := &rows[n-1]
		if last.Task == task && last.Dataset == dataset && last.Name == name {
			last.Starts = append(last.Starts, start)
			last.Values = append(last.Values, value)
			return rows
		}
	}
	return append(rows, SeriesRow{Task: task, Series: report.Series{
		Dataset:    dataset,
		Name:       name,
		BucketSize: bucketSize,
		Starts:     []int64{start},
		Values:     []float64{value},
	}})
}
