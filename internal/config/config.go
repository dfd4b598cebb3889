package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Go2GateSpectra/internal/model"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// AnalysisConfig holds the knobs shared by every task. Times are duration
// strings ("6h", "15m"); day_start/day_end are offsets from midnight.
type AnalysisConfig struct {
	DayStart          string `yaml:"day_start" toml:"day_start"`
	DayEnd            string `yaml:"day_end" toml:"day_end"`
	BucketSize        string `yaml:"bucket_size" toml:"bucket_size"`
	SLAThreshold      string `yaml:"sla_threshold" toml:"sla_threshold"`
	TimestampFormat   string `yaml:"timestamp_format" toml:"timestamp_format"`
	Timezone          string `yaml:"timezone" toml:"timezone"`
	BusinessOnly      bool   `yaml:"business_only" toml:"business_only"`
	SkipMalformedRows bool   `yaml:"skip_malformed_rows" toml:"skip_malformed_rows"`
}

// DatasetDef names one input file. Empty fields inherit the analysis defaults.
type DatasetDef struct {
	Label           string `yaml:"label" toml:"label"`
	Path            string `yaml:"path" toml:"path"`
	TimestampFormat string `yaml:"timestamp_format" toml:"timestamp_format"`
	Delimiter       string `yaml:"delimiter" toml:"delimiter"`
}

// FitConfig controls distribution fitting of arrival samples.
type FitConfig struct {
	Enabled       bool     `yaml:"enabled" toml:"enabled"`
	Timeout       string   `yaml:"timeout" toml:"timeout"`
	Distributions []string `yaml:"distributions" toml:"distributions"`
}

// TaskDef defines a single analysis task from the config file.
type TaskDef struct {
	Name       string    `yaml:"name" toml:"name"`
	Type       string    `yaml:"type" toml:"type"`
	Grouping   string    `yaml:"grouping" toml:"grouping"`
	Bins       int       `yaml:"bins" toml:"bins"`
	Resolution string    `yaml:"resolution" toml:"resolution"`
	Fit        FitConfig `yaml:"fit" toml:"fit"`
}

// ClickHouseConfig holds connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Database string `yaml:"database" toml:"database"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// SQLiteConfig holds the database file of the sqlite writer.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// PlotConfig sets the size of rendered figures in centimetres.
type PlotConfig struct {
	WidthCm  float64 `yaml:"width_cm" toml:"width_cm"`
	HeightCm float64 `yaml:"height_cm" toml:"height_cm"`
}

// WriterDef defines a single report writer.
type WriterDef struct {
	Type       string           `yaml:"type" toml:"type"`
	Enabled    bool             `yaml:"enabled" toml:"enabled"`
	RootPath   string           `yaml:"root_path" toml:"root_path"`
	SQLite     SQLiteConfig     `yaml:"sqlite" toml:"sqlite"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" toml:"clickhouse"`
	Plot       PlotConfig       `yaml:"plot" toml:"plot"`
}

// AlerterRule is a threshold check against a report scalar.
type AlerterRule struct {
	Name      string  `yaml:"name" toml:"name"`
	TaskName  string  `yaml:"task_name" toml:"task_name"`
	Dataset   string  `yaml:"dataset" toml:"dataset"`
	Metric    string  `yaml:"metric" toml:"metric"`
	Operator  string  `yaml:"operator" toml:"operator"`
	Threshold float64 `yaml:"threshold" toml:"threshold"`
}

// AlerterConfig holds the alert rules evaluated at the end of a run.
type AlerterConfig struct {
	Enabled bool          `yaml:"enabled" toml:"enabled"`
	Rules   []AlerterRule `yaml:"rules" toml:"rules"`
}

// SMTPConfig holds the settings of the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	From     string `yaml:"from" toml:"from"`
	To       string `yaml:"to" toml:"to"`
}

// NATSConfig configures run summary publishing and NATS alert delivery.
type NATSConfig struct {
	Enabled      bool   `yaml:"enabled" toml:"enabled"`
	URL          string `yaml:"url" toml:"url"`
	Subject      string `yaml:"subject" toml:"subject"`
	AlertSubject string `yaml:"alert_subject" toml:"alert_subject"`
}

// APIConfig configures the report query server.
type APIConfig struct {
	Source         string  `yaml:"source" toml:"source"`
	GrpcListenAddr string  `yaml:"grpc_listen_addr" toml:"grpc_listen_addr"`
	HttpListenAddr string  `yaml:"http_listen_addr" toml:"http_listen_addr"`
	RatePerSecond  float64 `yaml:"rate_per_second" toml:"rate_per_second"`
	Burst          int     `yaml:"burst" toml:"burst"`

	SQLite     SQLiteConfig     `yaml:"sqlite" toml:"sqlite"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" toml:"clickhouse"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" toml:"analysis"`
	Datasets []DatasetDef   `yaml:"datasets" toml:"datasets"`
	Tasks    []TaskDef      `yaml:"tasks" toml:"tasks"`
	Writers  []WriterDef    `yaml:"writers" toml:"writers"`
	Alerter  AlerterConfig  `yaml:"alerter" toml:"alerter"`
	SMTP     SMTPConfig     `yaml:"smtp" toml:"smtp"`
	NATS     NATSConfig     `yaml:"nats" toml:"nats"`
	API      APIConfig      `yaml:"api" toml:"api"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// Defaults of the analysis section.
const (
	DefaultDayStart        = "6h"
	DefaultDayEnd          = "20h"
	DefaultBucketSize      = "1h"
	DefaultSLAThreshold    = "30m"
	DefaultTimestampFormat = "%d.%m.%Y %H:%M:%S"
	DefaultDelimiter       = ";"
	DefaultFitTimeout      = "60s"
)

// LoadConfig reads the configuration from a YAML or TOML file, chosen by
// extension, fills defaults and validates it.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filePath, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	a := &c.Analysis
	setDefault(&a.DayStart, DefaultDayStart)
	setDefault(&a.DayEnd, DefaultDayEnd)
	setDefault(&a.BucketSize, DefaultBucketSize)
	setDefault(&a.SLAThreshold, DefaultSLAThreshold)
	setDefault(&a.TimestampFormat, DefaultTimestampFormat)
	setDefault(&a.Timezone, "Local")

	for i := range c.Datasets {
		setDefault(&c.Datasets[i].TimestampFormat, a.TimestampFormat)
		setDefault(&c.Datasets[i].Delimiter, DefaultDelimiter)
	}
	for i := range c.Tasks {
		if c.Tasks[i].Fit.Enabled {
			setDefault(&c.Tasks[i].Fit.Timeout, DefaultFitTimeout)
		}
	}
	setDefault(&c.Log.Level, "info")
	setDefault(&c.Log.Format, "console")
	setDefault(&c.NATS.Subject, "gatespectra.reports")
	setDefault(&c.NATS.AlertSubject, "gatespectra.alerts")
	setDefault(&c.API.Source, "sqlite")
	setDefault(&c.API.GrpcListenAddr, ":50051")
	setDefault(&c.API.HttpListenAddr, ":8080")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks the values LoadConfig cannot fix by defaulting.
func (c *Config) Validate() error {
	if _, err := c.Analysis.Params(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, ds := range c.Datasets {
		if ds.Label == "" || ds.Path == "" {
			return fmt.Errorf("dataset needs both label and path, got label=%q path=%q", ds.Label, ds.Path)
		}
		if seen[ds.Label] {
			return fmt.Errorf("duplicate dataset label '%s'", ds.Label)
		}
		seen[ds.Label] = true
		if len([]rune(ds.Delimiter)) != 1 {
			return fmt.Errorf("dataset '%s': delimiter must be a single character", ds.Label)
		}
	}
	names := make(map[string]bool)
	for _, t := range c.Tasks {
		if t.Name == "" || t.Type == "" {
			return fmt.Errorf("task needs both name and type, got name=%q type=%q", t.Name, t.Type)
		}
		if names[t.Name] {
			return fmt.Errorf("duplicate task name '%s'", t.Name)
		}
		names[t.Name] = true
		if t.Resolution != "" {
			if _, err := Seconds(t.Resolution); err != nil {
				return fmt.Errorf("task '%s' resolution: %w", t.Name, err)
			}
		}
		if t.Fit.Enabled {
			if _, err := time.ParseDuration(t.Fit.Timeout); err != nil {
				return fmt.Errorf("task '%s' fit timeout: %w", t.Name, err)
			}
		}
	}
	return nil
}

// Params resolves the analysis section into seconds and a location.
func (a AnalysisConfig) Params() (model.AnalysisParams, error) {
	var p model.AnalysisParams
	var err error
	if p.DayStart, err = Seconds(a.DayStart); err != nil {
		return p, fmt.Errorf("invalid day_start: %w", err)
	}
	if p.DayEnd, err = Seconds(a.DayEnd); err != nil {
		return p, fmt.Errorf("invalid day_end: %w", err)
	}
	if p.DayStart > p.DayEnd || p.DayEnd > model.Day {
		return p, fmt.Errorf("day window must satisfy 0 <= day_start <= day_end <= 24h, got %s..%s", a.DayStart, a.DayEnd)
	}
	if p.BucketSize, err = Seconds(a.BucketSize); err != nil {
		return p, fmt.Errorf("invalid bucket_size: %w", err)
	}
	if p.BucketSize <= 0 {
		return p, fmt.Errorf("bucket_size must be a positive duration")
	}
	if p.SLAThreshold, err = Seconds(a.SLAThreshold); err != nil {
		return p, fmt.Errorf("invalid sla_threshold: %w", err)
	}
	if p.Location, err = loadLocation(a.Timezone); err != nil {
		return p, fmt.Errorf("invalid timezone: %w", err)
	}
	p.BusinessOnly = a.BusinessOnly
	return p, nil
}

// Seconds parses a duration string into whole seconds.
func Seconds(s string) (int64, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return int64(d / time.Second), nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// WriterByType returns the first enabled writer of the given type.
func (c *Config) WriterByType(typ string) (WriterDef, bool) {
	for _, w := range c.Writers {
		if w.Enabled && w.Type == typ {
			return w, true
		}
	}
	return WriterDef{}, false
}
