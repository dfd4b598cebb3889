package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"Go2GateSpectra/internal/alerter"
	"Go2GateSpectra/internal/config"
	_ "Go2GateSpectra/internal/engine/impl/arrival"     // Registers arrival task
	_ "Go2GateSpectra/internal/engine/impl/arrivalrate" // Registers arrival_rate task
	_ "Go2GateSpectra/internal/engine/impl/basic"       // Registers basic task
	_ "Go2GateSpectra/internal/engine/impl/sla"         // Registers sla task
	_ "Go2GateSpectra/internal/engine/impl/waiting"     // Registers waiting task
	"Go2GateSpectra/internal/factory"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/notification"
	"Go2GateSpectra/internal/probe"
	"Go2GateSpectra/internal/report"
	_ "Go2GateSpectra/internal/writer" // Registers report writers
	"Go2GateSpectra/pkg/logger"

	"github.com/nats-io/nats.go"
)

// Manager runs the batch pipeline: load every dataset, run every task over
// them, then hand the finished report to the alerter, the writers and the
// publisher.
type Manager struct {
	cfg       *config.Config
	params    model.AnalysisParams
	tasks     []model.Task
	writers   []model.Writer
	alerter   *alerter.Alerter
	publisher *probe.Publisher
	nc        *nats.Conn
	log       *logger.Logger
	now       func() time.Time
}

// NewManager creates tasks, writers and the optional alerter and publisher from cfg.
func NewManager(cfg *config.Config, log *logger.Logger) (*Manager, error) {
	params, err := cfg.Analysis.Params()
	if err != nil {
		return nil, err
	}
	env := factory.Env{Params: params, Log: log}

	tasks, err := factory.CreateTasks(cfg, env)
	if err != nil {
		return nil, err
	}
	writers, err := factory.CreateWriters(cfg, env)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:     cfg,
		params:  params,
		tasks:   tasks,
		writers: writers,
		log:     log.Named("manager"),
		now:     time.Now,
	}

	if cfg.NATS.Enabled {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("gatespectra-analyzer"))
		if err != nil {
			m.log.Warn("NATS unavailable, run summaries will not be published", logger.String("url", cfg.NATS.URL), logger.Error(err))
		} else {
			m.nc = nc
			m.publisher = probe.NewPublisher(nc, cfg.NATS.Subject, log)
			m.log.Info("Connected to NATS server", logger.String("url", cfg.NATS.URL))
		}
	}

	if cfg.Alerter.Enabled {
		var notifiers []model.Notifier
		if cfg.SMTP.Host != "" {
			notifiers = append(notifiers, notification.NewEmailNotifier(cfg.SMTP))
		}
		if m.nc != nil {
			notifiers = append(notifiers, notification.NewNATSNotifier(m.nc, cfg.NATS.AlertSubject))
		}
		if len(notifiers) == 0 {
			m.log.Warn("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		} else {
			if m.alerter, err = alerter.NewAlerter(&cfg.Alerter, notifiers, log); err != nil {
				m.Stop()
				return nil, fmt.Errorf("failed to create alerter: %w", err)
			}
			m.log.Info("Alerter enabled and initialized", logger.Int("notifiers", len(notifiers)))
		}
	}

	return m, nil
}

// Tasks returns the configured tasks in run order.
func (m *Manager) Tasks() []model.Task { return m.tasks }

// Run executes the whole pipeline once and returns the finished report.
// Loading and task errors abort the run; alert, writer and publish failures
// are logged and do not.
func (m *Manager) Run(ctx context.Context) (*report.Report, error) {
	start := m.now()
	rep := report.New(start)
	m.log.Info("Starting analysis run", logger.String("run_id", rep.RunID),
		logger.Int("datasets", len(m.cfg.Datasets)), logger.Int("tasks", len(m.tasks)))

	datasets := make([]*model.Dataset, 0, len(m.cfg.Datasets))
	for _, def := range m.cfg.Datasets {
		ds, err := LoadDataset(def, m.params, m.cfg.Analysis.SkipMalformedRows, m.log)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
		rep.Datasets = append(rep.Datasets, report.DatasetInfo{
			Label:      ds.Label,
			Path:       ds.Path,
			RawRows:    ds.RawRows,
			Retained:   len(ds.Records),
			Dropped:    ds.Dropped,
			Skipped:    ds.Skipped,
			OutOfOrder: ds.OutOfOrder(),
		})
	}

	for _, t := range m.tasks {
		t.Reset()
		if err := t.Process(ctx, datasets); err != nil {
			return nil, fmt.Errorf("task '%s' failed: %w", t.Name(), err)
		}
		rep.Sections = append(rep.Sections, t.Snapshot())
		m.log.Info("Task completed", logger.String("task", t.Name()))
	}

	if m.alerter != nil {
		if _, err := m.alerter.Run(rep); err != nil {
			m.log.Error("Alert delivery failed", logger.Error(err))
		}
	}

	if err := m.writeAll(rep); err != nil {
		m.log.Error("Some writers failed", logger.Error(err))
	}

	if m.publisher != nil {
		if err := m.publisher.Publish(rep); err != nil {
			m.log.Error("Failed to publish run summary", logger.Error(err))
		}
	}

	m.log.Info("Analysis run finished", logger.String("run_id", rep.RunID),
		logger.Int("sections", len(rep.Sections)), logger.Int("figures", rep.FigureCount()),
		logger.Duration("elapsed", m.now().Sub(start)))
	return rep, nil
}

// writeAll hands the read-only report to every writer concurrently.
func (m *Manager) writeAll(rep *report.Report) error {
	timestamp := rep.RunID
	m.log.Info("Writing report", logger.String("timestamp", timestamp), logger.Int("writers", len(m.writers)))

	var wg sync.WaitGroup
	errs := make([]error, len(m.writers))
	for i, w := range m.writers {
		wg.Add(1)
		go func(i int, w model.Writer) {
			defer wg.Done()
			if err := w.Write(rep, timestamp); err != nil {
				m.log.Error("Error writing report", logger.String("writer", w.Name()), logger.Error(err))
				errs[i] = fmt.Errorf("%s: %w", w.Name(), err)
			}
		}(i, w)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Stop releases writer and NATS connections.
func (m *Manager) Stop() {
	for _, w := range m.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				m.log.Warn("Failed to close writer", logger.String("writer", w.Name()), logger.Error(err))
			}
		}
	}
	if m.publisher != nil {
		m.publisher.Close()
	} else if m.nc != nil {
		m.nc.Close()
	}
	m.log.Info("Manager stopped")
}
