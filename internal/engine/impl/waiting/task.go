package waiting

import (
	"context"
	"strings"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/engine/impl/common"
	"Go2GateSpectra/internal/engine/statistic"
	"Go2GateSpectra/internal/factory"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

// DefaultBins is the number of bins of the comparison histograms.
const DefaultBins = 100

// --- Factory Registration ---

func init() {
	factory.RegisterTask("waiting", func(def config.TaskDef, env factory.Env) (model.Task, error) {
		return New(def, env.Params, env.Log), nil
	})
}

// --- Task Implementation ---

// Task summarizes the waiting time between consecutive checkpoints and from
// b1 to b5, and compares the distributions of all datasets side by side.
type Task struct {
	*common.Base
	bins    int
	classes []statistic.Group
	scope   func(*model.PassengerRecord) bool
	log     *logger.Logger
}

func New(def config.TaskDef, params model.AnalysisParams, log *logger.Logger) *Task {
	bins := def.Bins
	if bins <= 0 {
		bins = DefaultBins
	}
	return &Task{
		Base:    common.NewBase(def.Name, "waiting", "Waiting times between checkpoints"),
		bins:    bins,
		classes: common.Classes(params, true),
		scope:   common.InScope(params),
		log:     log.Named(def.Name),
	}
}

func (t *Task) Process(ctx context.Context, datasets []*model.Dataset) error {
	for _, metric := range statistic.Metrics {
		if err := ctx.Err(); err != nil {
			return err
		}

		samples := make([][]float64, len(datasets))
		for i, ds := range datasets {
			recs := ds.Select(t.scope)
			for _, c := range t.classes {
				t.AddStat(report.Stat{
					Dataset: ds.Label,
					Group:   "complete",
					Class:   c.Name,
					Metric:  metric,
					Summary: statistic.Summarize(statistic.Values(c.Filter(recs), metric)),
				})
			}
			samples[i] = statistic.ToMinutes(statistic.Values(recs, metric))
		}

		if len(datasets) == 0 {
			continue
		}
		edges := statistic.SharedEdges(t.bins, samples...)
		panels := make([]report.Histogram, len(datasets))
		for i, ds := range datasets {
			panels[i] = statistic.Histogram(ds.Label, samples[i], edges)
		}
		t.AddFigure(report.Figure{
			Name:   common.FileName("waiting", metric),
			Folder: report.FolderWaitingTimes,
			Title:  "Waiting time between " + strings.Replace(metric, "_", " and ", 1),
			XLabel: "Waiting time [min]",
			YLabel: "Passengers",
			Panels: panels,
		})
	}
	t.log.Debug("Waiting times compared", logger.Int("datasets", len(datasets)))
	return nil
}
