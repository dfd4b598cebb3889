package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/internal/writer"
	"Go2GateSpectra/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runReport(at time.Time, ratio float64) *report.Report {
	rep := report.New(at)
	rep.Datasets = []report.DatasetInfo{{Label: "historical", Path: "data.csv", RawRows: 10, Retained: 10}}
	rep.Sections = []report.Section{
		{
			Task: "basic", Type: "basic",
			Stats: []report.Stat{
				{Dataset: "historical", Group: "weekday", Class: "economy", Metric: "b1_b5",
					Summary: report.Summary{Count: 8, Min: 4, Max: 40, Mean: 20, StdDev: 5}},
				{Dataset: "historical", Group: "weekend", Class: "economy", Metric: "b1_b5",
					Summary: report.Summary{Count: 2, Min: 10, Max: 12, Mean: 11, StdDev: 1.4}},
			},
		},
		{
			Task: "sla", Type: "sla",
			Scalars: []report.Scalar{
				{Dataset: "historical", Name: "sla_ratio", Value: ratio},
				{Dataset: "historical", Name: "records", Value: 10},
			},
			Series: []report.Series{
				{Dataset: "historical", Name: "exits", BucketSize: 3600, Starts: []int64{0, 3600, 7200}, Values: []float64{1, 4, 2}},
				{Dataset: "historical", Name: "sla_ratio", BucketSize: 3600, Starts: []int64{0, 3600}, Values: []float64{1, 0.5}},
			},
		},
	}
	return rep
}

func newStore(t *testing.T, reports ...*report.Report) Querier {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports.db")
	w, err := writer.NewSQLiteWriter(config.SQLiteConfig{Path: path}, logger.Nop())
	require.NoError(t, err)
	for _, rep := range reports {
		require.NoError(t, w.Write(rep, rep.RunID))
	}
	require.NoError(t, w.Close())

	q, err := New("sqlite", config.SQLiteConfig{Path: path}, config.ClickHouseConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestSQLiteQuerier(t *testing.T) {
	first := runReport(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), 0.7)
	second := runReport(time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC), 0.9)
	q := newStore(t, first, second)
	ctx := context.Background()

	t.Run("ListRuns", func(t *testing.T) {
		runs, err := q.ListRuns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, second.RunID, runs[0].RunID)
		assert.True(t, runs[0].GeneratedAt.After(runs[1].GeneratedAt))

		runs, err = q.ListRuns(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("ScalarsDefaultToLatest", func(t *testing.T) {
		runID, rows, err := q.Scalars(ctx, Filter{Name: "sla_ratio"})
		require.NoError(t, err)
		assert.Equal(t, second.RunID, runID)
		require.Len(t, rows, 1)
		assert.Equal(t, "sla", rows[0].Task)
		assert.Equal(t, 0.9, rows[0].Value)

		_, rows, err = q.Scalars(ctx, Filter{RunID: first.RunID, Name: "sla_ratio"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 0.7, rows[0].Value)
	})

	t.Run("Stats", func(t *testing.T) {
		_, rows, err := q.Stats(ctx, Filter{Task: "basic"})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "weekday", rows[0].Group)
		assert.Equal(t, 8, rows[0].Summary.Count)
		assert.InDelta(t, 1.4, rows[1].Summary.StdDev, 1e-12)
	})

	t.Run("SeriesGroupsPoints", func(t *testing.T) {
		_, rows, err := q.Series(ctx, Filter{Task: "sla"})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "exits", rows[0].Name)
		assert.Equal(t, []int64{0, 3600, 7200}, rows[0].Starts)
		assert.Equal(t, []float64{1, 4, 2}, rows[0].Values)
		assert.Equal(t, "sla_ratio", rows[1].Name)
		assert.Equal(t, int64(3600), rows[1].BucketSize)
	})

	t.Run("UnknownRun", func(t *testing.T) {
		_, rows, err := q.Stats(ctx, Filter{RunID: "missing"})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestSQLiteQuerier_Empty(t *testing.T) {
	q := newStore(t)
	_, _, err := q.Scalars(context.Background(), Filter{})
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestNew_UnknownSource(t *testing.T) {
	_, err := New("postgres", config.SQLiteConfig{}, config.ClickHouseConfig{})
	assert.Error(t, err)
}
