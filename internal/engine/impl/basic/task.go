package basic

import (
	"context"
	"fmt"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/engine/impl/common"
	"Go2GateSpectra/internal/engine/statistic"
	"Go2GateSpectra/internal/factory"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

// Supported groupings.
const (
	GroupingWeekPart  = "weekday_weekend"
	GroupingSingleDay = "single_day"
)

// --- Factory Registration ---

func init() {
	factory.RegisterTask("basic", func(def config.TaskDef, env factory.Env) (model.Task, error) {
		return New(def, env.Params, env.Log)
	})
}

// --- Task Implementation ---

// Task reports basic statistics of the total duration per time group and
// class, plus the hour-of-arrival histogram of every group.
type Task struct {
	*common.Base
	groups  []statistic.Group
	classes []statistic.Group
	log     *logger.Logger
}

// New creates a basic statistics task.
func New(def config.TaskDef, params model.AnalysisParams, log *logger.Logger) (*Task, error) {
	var groups []statistic.Group
	switch def.Grouping {
	case "", GroupingWeekPart:
		groups = statistic.WeekPartGroups()
	case GroupingSingleDay:
		groups = statistic.SingleDayGroups()
	default:
		return nil, fmt.Errorf("basic task '%s': unknown grouping '%s'", def.Name, def.Grouping)
	}
	return &Task{
		Base:    common.NewBase(def.Name, "basic", "Basic analysis of the time from b1 to b5"),
		groups:  groups,
		classes: common.Classes(params, true),
		log:     log.Named(def.Name),
	}, nil
}

// Process computes the statistics of every dataset.
func (t *Task) Process(ctx context.Context, datasets []*model.Dataset) error {
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, g := range t.groups {
			recs := g.Select(ds)
			for _, c := range t.classes {
				sample := c.Filter(recs)
				t.AddStat(report.Stat{
					Dataset: ds.Label,
					Group:   g.Name,
					Class:   c.Name,
					Metric:  statistic.MetricTotal,
					Summary: statistic.Summarize(statistic.Values(sample, statistic.MetricTotal)),
				})
				if c.Name != "all" {
					t.AddFigure(arrivalFigure(ds.Label, c.Name+" "+g.Name, sample))
				}
			}
		}
		t.log.Debug("Basic statistics computed", logger.String("dataset", ds.Label), logger.Int("records", len(ds.Records)))
	}
	return nil
}

func arrivalFigure(dataset, name string, recs []*model.PassengerRecord) report.Figure {
	hours := make([]float64, len(recs))
	for i, r := range recs {
		hours[i] = float64(r.Hour)
	}
	return report.Figure{
		Name:   common.FileName(dataset, "arrival", name),
		Folder: report.FolderImages,
		Title:  "Arrival " + name + " (" + dataset + ")",
		XLabel: "Time of day [h]",
		YLabel: "Occurrences",
		Panels: []report.Histogram{statistic.Histogram(dataset, hours, statistic.Edges(0, 24, 24))},
	}
}
