package arrivalrate

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
	GroupingSingleDay         = "single_day"
	GroupingWorkingDayWeekend = "working_day_weekend"
)

func init() {
	factory.RegisterTask("arrival_rate", func(def config.TaskDef, env factory.Env) (model.Task, error) {
		return New(def, env.Params, env.Log)
	})
}

// Task counts arrivals per hour of day for every day group and class.
type Task struct {
	*common.Base
	groups  []statistic.Group
	classes []statistic.Group
	log     *logger.Logger
}

func New(def config.TaskDef, params model.AnalysisParams, log *logger.Logger) (*Task, error) {
	var groups []statistic.Group
	switch def.Grouping {
	case "", GroupingSingleDay:
		groups = statistic.SingleDayGroups()
	case GroupingWorkingDayWeekend:
		groups = []statistic.Group{
			{Name: "working day", Match: func(r *model.PassengerRecord) bool { return statistic.IsWorkingDay(r.Weekday) }},
			{Name: "weekend", Match: func(r *model.PassengerRecord) bool { return !statistic.IsWorkingDay(r.Weekday) }},
		}
	default:
		return nil, fmt.Errorf("arrival_rate task '%s': unknown grouping '%s'", def.Name, def.Grouping)
	}
	return &Task{
		Base:    common.NewBase(def.Name, "arrival_rate", "Hourly arrival rates"),
		groups:  groups,
		classes: common.Classes(params, false),
		log:     log.Named(def.Name),
	}, nil
}

func (t *Task) Process(ctx context.Context, datasets []*model.Dataset) error {
	starts := statistic.BucketStarts(model.Day, model.Hour)
	edges := statistic.Edges(0, 24, 24)

	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, g := range t.groups {
			recs := g.Select(ds)
			for _, c := range t.classes {
				counts := statistic.HourlyCounts(c.Filter(recs))
				name := c.Name + " " + g.Name

				values := make([]float64, len(counts))
				for h, n := range counts {
					values[h] = float64(n)
				}
				t.AddSeries(report.Series{
					Dataset:    ds.Label,
					Name:       name,
					BucketSize: model.Hour,
					Starts:     starts,
					Values:     values,
				})
				t.AddFigure(report.Figure{
					Name:   common.FileName(ds.Label, "arrival_rate", name),
					Folder: report.FolderImages,
					Title:  "Arrival rate " + name + " (" + ds.Label + ")",
					XLabel: "Hour of day",
					YLabel: "Arrivals",
					Panels: []report.Histogram{{Label: ds.Label, Edges: edges, Counts: values}},
				})
			}
		}
		t.log.Debug("Arrival rates counted", logger.String("dataset", ds.Label))
	}
	return nil
}
