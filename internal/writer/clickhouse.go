package writer

import (
	"context"
	"fmt"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

var clickhouseSchema = []string{`
CREATE TABLE IF NOT EXISTS gate_runs (
    RunID       String,
    GeneratedAt DateTime
) ENGINE = ReplacingMergeTree()
ORDER BY RunID;
`, `
CREATE TABLE IF NOT EXISTS gate_stats (
    RunID   String,
    Task    String,
    Dataset String,
    Grp     String,
    Class   String,
    Metric  String,
    Count   UInt64,
    Min     Float64,
    Max     Float64,
    Mean    Float64,
    StdDev  Float64
) ENGINE = MergeTree()
ORDER BY (RunID, Task, Dataset);
`, `
CREATE TABLE IF NOT EXISTS gate_scalars (
    RunID   String,
    Task    String,
    Dataset String,
    Name    String,
    Value   Float64
) ENGINE = MergeTree()
ORDER BY (RunID, Task, Name);
`, `
CREATE TABLE IF NOT EXISTS gate_series (
    RunID      String,
    Task       String,
    Dataset    String,
    Name       String,
    BucketSize Int64,
    Start      Int64,
    Value      Float64
) ENGINE = MergeTree()
ORDER BY (RunID, Task, Name, Start);
`}

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
	log  *logger.Logger
}

// NewClickHouseWriter connects and ensures the report tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig, log *logger.Logger) (*ClickHouseWriter, error) {
	conn, err := ConnectClickHouse(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	for _, stmt := range clickhouseSchema {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			return nil, fmt.Errorf("failed to create report tables: %w", err)
		}
	}
	log.Info("Connected to ClickHouse and ensured report tables exist",
		logger.String("database", cfg.Database), logger.String("host", cfg.Host), logger.Int("port", cfg.Port))
	return &ClickHouseWriter{conn: conn, log: log.Named("clickhouse-writer")}, nil
}

// ConnectClickHouse opens and pings a ClickHouse connection.
func ConnectClickHouse(cfg config.ClickHouseConfig) (driver.Conn, error) {
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

func (w *ClickHouseWriter) Name() string { return "clickhouse" }

func (w *ClickHouseWriter) Write(rep *report.Report, timestamp string) error {
	ctx := context.Background()

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO gate_runs")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	if err := batch.Append(rep.RunID, runTime(rep, timestamp)); err != nil {
		return fmt.Errorf("failed to append run to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	stats, err := w.conn.PrepareBatch(ctx, "INSERT INTO gate_stats")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	scalars, err := w.conn.PrepareBatch(ctx, "INSERT INTO gate_scalars")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	series, err := w.conn.PrepareBatch(ctx, "INSERT INTO gate_series")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	total := 0
	for _, sec := range rep.Sections {
		for _, s := range sec.Stats {
			if err := stats.Append(rep.RunID, sec.Task, s.Dataset, s.Group, s.Class, s.Metric,
				uint64(s.Summary.Count), s.Summary.Min, s.Summary.Max, s.Summary.Mean, s.Summary.StdDev); err != nil {
				return fmt.Errorf("failed to append stat to batch: %w", err)
			}
			total++
		}
		for _, s := range sec.Scalars {
			if err := scalars.Append(rep.RunID, sec.Task, s.Dataset, s.Name, s.Value); err != nil {
				return fmt.Errorf("failed to append scalar to batch: %w", err)
			}
			total++
		}
		for _, s := range sec.Series {
			for i, start := range s.Starts {
				if err := series.Append(rep.RunID, sec.Task, s.Dataset, s.Name, s.BucketSize, start, s.Values[i]); err != nil {
					return fmt.Errorf("failed to append series point to batch: %w", err)
				}
				total++
			}
		}
	}

	for _, b := range []driver.Batch{stats, scalars, series} {
		if err := b.Send(); err != nil {
			return fmt.Errorf("failed to send batch: %w", err)
		}
	}

	w.log.Info("Wrote report rows to ClickHouse", logger.Int("rows", total), logger.String("run_id", rep.RunID))
	return nil
}

// Close closes the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
