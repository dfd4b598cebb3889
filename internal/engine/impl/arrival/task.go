package arrival

import (
	"context"
	"fmt"
	"time"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/engine/impl/common"
	"Go2GateSpectra/internal/engine/statistic"
	"Go2GateSpectra/internal/factory"
	"Go2GateSpectra/internal/fitting"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

// Supported groupings.
const (
	GroupingSingleDay         = "single_day"
	GroupingWorkingDayWeekend = "working_day_weekend"
)

// DefaultResolution is the histogram bin width.
const DefaultResolution = 15 * model.Minute

const curvePoints = 200

// --- Factory Registration ---

func init() {
	factory.RegisterTask("arrival", func(def config.TaskDef, env factory.Env) (model.Task, error) {
		var fitter model.Fitter
		if def.Fit.Enabled {
			timeout, err := time.ParseDuration(def.Fit.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid fit timeout: %w", err)
			}
			f, err := fitting.New(def.Fit.Distributions, timeout, env.Log)
			if err != nil {
				return nil, err
			}
			fitter = f
		}
		return New(def, env.Params, fitter, env.Log)
	})
}

// --- Task Implementation ---

// Task builds arrival-time histograms per period and class. Daytime samples are
// hours of the day; night samples are shifted so the night starts at 0. With a
// fitter every sample is also matched against distribution families.
type Task struct {
	*common.Base
	window     statistic.DayWindow
	periods    []statistic.Period
	classes    []statistic.Group
	resolution int64
	fitter     model.Fitter
	log        *logger.Logger
}

// New creates an arrival task. fitter may be nil to disable fitting.
func New(def config.TaskDef, params model.AnalysisParams, fitter model.Fitter, log *logger.Logger) (*Task, error) {
	window := statistic.DayWindow{Start: params.DayStart, End: params.DayEnd}

	var periods []statistic.Period
	switch def.Grouping {
	case "", GroupingSingleDay:
		periods = window.SingleDayPeriods()
	case GroupingWorkingDayWeekend:
		periods = window.WorkingDayWeekendPeriods()
	default:
		return nil, fmt.Errorf("arrival task '%s': unknown grouping '%s'", def.Name, def.Grouping)
	}

	resolution := int64(DefaultResolution)
	if def.Resolution != "" {
		var err error
		if resolution, err = config.Seconds(def.Resolution); err != nil {
			return nil, fmt.Errorf("arrival task '%s': %w", def.Name, err)
		}
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("arrival task '%s': resolution must be positive", def.Name)
	}

	return &Task{
		Base:       common.NewBase(def.Name, "arrival", "Arrival time distributions"),
		window:     window,
		periods:    periods,
		classes:    common.Classes(params, false),
		resolution: resolution,
		fitter:     fitter,
		log:        log.Named(def.Name),
	}, nil
}

// bins returns the number of histogram bins of a period, at least one.
func (t *Task) bins(p statistic.Period) int {
	length := t.window.DayLength()
	if p.Night {
		length = t.window.NightLength()
	}
	if n := int(length / t.resolution); n > 0 {
		return n
	}
	return 1
}

// Process builds one histogram per dataset, period and class.
func (t *Task) Process(ctx context.Context, datasets []*model.Dataset) error {
	for _, ds := range datasets {
		for _, p := range t.periods {
			recs := p.Select(ds)
			for _, c := range t.classes {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.processSample(ctx, ds.Label, p, c.Name+" "+p.Name, t.window.ArrivalHours(p, c.Filter(recs)))
			}
		}
	}
	return nil
}

func (t *Task) processSample(ctx context.Context, dataset string, p statistic.Period, name string, sample []float64) {
	lo, hi := t.window.HourRange(p)
	bins := t.bins(p)
	hist := statistic.Histogram(dataset, sample, statistic.Edges(lo, hi, bins))

	fig := report.Figure{
		Name:   common.FileName(dataset, "arrival", name),
		Folder: report.FolderImages,
		Title:  "Arrival " + name + " (" + dataset + ")",
		XLabel: "Time [h]",
		YLabel: "Occurrences",
		Panels: []report.Histogram{hist},
	}
	if p.Night {
		fig.XLabel = fmt.Sprintf("Hours since %02d:%02d", t.window.End/model.Hour, t.window.End%model.Hour/model.Minute)
	}

	if t.fitter != nil {
		fig.Folder = report.FolderDistributions
		fit := t.fitter.Fit(ctx, dataset+" "+name, sample, bins)
		t.AddFit(fit)
		width := (hi - lo) / float64(bins)
		fig.Curve = fitting.Curve(fit, sample, lo, hi, float64(len(sample))*width, curvePoints)
	}
	t.AddFigure(fig)
	t.log.Debug("Arrival histogram built", logger.String("sample", dataset+" "+name), logger.Int("size", len(sample)))
}
