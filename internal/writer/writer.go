// Package writer holds the report writers. Each writer serializes the finished
// report of a run into one output format and registers itself with the factory.
package writer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/factory"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
)

// DefaultRootPath is used when a file writer has no root_path.
const DefaultRootPath = "output"

// TimestampLayout names run directories and parses them back.
const TimestampLayout = "2006-01-02_15-04-05"

// --- Factory Registration ---

func init() {
	factory.RegisterWriter("text", func(def config.WriterDef, env factory.Env) (model.Writer, error) {
		return NewTextWriter(rootPath(def), env.Log), nil
	})
	factory.RegisterWriter("gob", func(def config.WriterDef, env factory.Env) (model.Writer, error) {
		return NewGobWriter(rootPath(def), env.Log), nil
	})
	factory.RegisterWriter("html", func(def config.WriterDef, env factory.Env) (model.Writer, error) {
		return NewHTMLWriter(rootPath(def), env.Log), nil
	})
	factory.RegisterWriter("plot", func(def config.WriterDef, env factory.Env) (model.Writer, error) {
		return NewPlotWriter(rootPath(def), def.Plot, env.Log), nil
	})
	factory.RegisterWriter("sqlite", func(def config.WriterDef, env factory.Env) (model.Writer, error) {
		return NewSQLiteWriter(def.SQLite, env.Log)
	})
	factory.RegisterWriter("clickhouse", func(def config.WriterDef, env factory.Env) (model.Writer, error) {
		return NewClickHouseWriter(def.ClickHouse, env.Log)
	})
}

func rootPath(def config.WriterDef) string {
	if def.RootPath == "" {
		return DefaultRootPath
	}
	return def.RootPath
}

// runTime parses a run timestamp, falling back to the report time.
func runTime(rep *report.Report, timestamp string) time.Time {
	if t, err := time.ParseInLocation(TimestampLayout, timestamp, time.Local); err == nil {
		return t
	}
	return rep.GeneratedAt
}

// FormatOffset renders a bucket start: "Mon 08:00" for offsets into the week,
// "08:00" for offsets into a day.
func FormatOffset(start int64, weekly bool) string {
	h := start % model.Day / model.Hour
	m := start % model.Hour / model.Minute
	if !weekly {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	day := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}[start/model.Day%7]
	return fmt.Sprintf("%s %02d:%02d", day, h, m)
}

// isWeekly reports whether a series spans more than one day.
func isWeekly(s report.Series) bool {
	return int64(len(s.Starts))*s.BucketSize > model.Day
}

// formatParams renders fit parameters in a stable order.
func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4f", k, params[k])
	}
	return strings.Join(parts, ", ")
}
