package sla

import (
	"context"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/engine/impl/common"
	"Go2GateSpectra/internal/engine/statistic"
	"Go2GateSpectra/internal/factory"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

// Scalar names of the sla section.
const (
	ScalarRatio      = "sla_ratio"
	ScalarRecords    = "records"
	ScalarWithin     = "within_sla"
	ScalarOutOfOrder = "out_of_order"
)

// Series names of the sla section.
const (
	SeriesExits    = "exits"
	SeriesMeanWait = "mean_wait_minutes"
	SeriesRatio    = "sla_ratio"
	SeriesInSystem = "in_system"
)

// --- Factory Registration ---

func init() {
	factory.RegisterTask("sla", func(def config.TaskDef, env factory.Env) (model.Task, error) {
		return New(def, env.Params, env.Log), nil
	})
}

// --- Task Implementation ---

// Task reports SLA compliance per dataset and the weekly time series of exits,
// mean waiting time, SLA ratio and passengers in the system.
type Task struct {
	*common.Base
	bucket    int64
	threshold int64
	scope     func(*model.PassengerRecord) bool
	log       *logger.Logger
}

func New(def config.TaskDef, params model.AnalysisParams, log *logger.Logger) *Task {
	return &Task{
		Base:      common.NewBase(def.Name, "sla", "SLA compliance"),
		bucket:    params.BucketSize,
		threshold: params.SLAThreshold,
		scope:     common.InScope(params),
		log:       log.Named(def.Name),
	}
}

func (t *Task) Process(ctx context.Context, datasets []*model.Dataset) error {
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return err
		}
		recs := ds.Select(t.scope)
		ratio := statistic.SLARatio(recs, t.threshold)
		within, outOfOrder := 0, 0
		for _, r := range recs {
			if r.WithinSLA(t.threshold) {
				within++
			}
			if r.OutOfOrder() {
				outOfOrder++
			}
		}
		t.AddScalar(
			report.Scalar{Dataset: ds.Label, Name: ScalarRatio, Value: ratio},
			report.Scalar{Dataset: ds.Label, Name: ScalarRecords, Value: float64(len(recs))},
			report.Scalar{Dataset: ds.Label, Name: ScalarWithin, Value: float64(within)},
			report.Scalar{Dataset: ds.Label, Name: ScalarOutOfOrder, Value: float64(outOfOrder)},
		)

		w := statistic.Window(recs, t.bucket, t.threshold)
		t.addSeries(ds.Label, SeriesExits, w.Starts, w.Exits, "Passengers leaving b5")
		t.addSeries(ds.Label, SeriesMeanWait, w.Starts, w.MeanWait, "Mean time b1 to b5 [min]")
		t.addSeries(ds.Label, SeriesRatio, w.Starts, w.SLA, "SLA ratio")
		t.addSeries(ds.Label, SeriesInSystem, w.Starts, w.InSystem, "Passengers in system")

		t.log.Info("SLA evaluated",
			logger.String("dataset", ds.Label),
			logger.Float64("ratio", ratio),
			logger.Int("records", len(recs)))
	}
	return nil
}

func (t *Task) addSeries(dataset, name string, starts []int64, values []float64, ylabel string) {
	t.AddSeries(report.Series{
		Dataset:    dataset,
		Name:       name,
		BucketSize: t.bucket,
		Starts:     starts,
		Values:     values,
	})
	curve := make([]report.Point, len(starts))
	for i, s := range starts {
		curve[i] = report.Point{X: float64(s) / model.Hour, Y: values[i]}
	}
	t.AddFigure(report.Figure{
		Name:   common.FileName(dataset, name),
		Folder: report.FolderTimeSeries,
		Title:  ylabel + " per week (" + dataset + ")",
		XLabel: "Hours since Monday 00:00",
		YLabel: ylabel,
		Curve:  curve,
	})
}
