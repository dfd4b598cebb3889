package waiting

import (
	"context"
	"testing"
	"time"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/engine/derive"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passage derives a record entering at 01.01.2024 08:00 with the given gaps in minutes.
func passage(t *testing.T, class model.PassengerClass, gaps ...int) model.PassengerRecord {
	t.Helper()
	d, err := derive.New("%d.%m.%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rec := model.PassengerRecord{Class: class}
	rec.Checkpoints[0] = at.Format("02.01.2006 15:04:05")
	for i, g := range gaps {
		at = at.Add(time.Duration(g) * time.Minute)
		rec.Checkpoints[i+1] = at.Format("02.01.2006 15:04:05")
	}
	require.NoError(t, d.Derive(&rec))
	return rec
}

func TestTask_StatsAndComparison(t *testing.T) {
	hist := &model.Dataset{Label: "historical", Records: []model.PassengerRecord{
		passage(t, model.Economy, 2, 4, 6, 8),
		passage(t, model.Business, 1, 1, 1, 1),
	}}
	sim := &model.Dataset{Label: "simulated", Records: []model.PassengerRecord{
		passage(t, model.Economy, 3, 3, 3, 3),
	}}

	task := New(config.TaskDef{Name: "waiting", Bins: 4}, model.DefaultParams(), logger.Nop())
	require.NoError(t, task.Process(context.Background(), []*model.Dataset{hist, sim}))
	sec := task.Snapshot()

	assert.Len(t, sec.Stats, 5*2*3, "five metrics, two datasets, three classes")
	var total report.Summary
	for _, s := range sec.Stats {
		if s.Dataset == "historical" && s.Metric == "b1_b5" && s.Class == "all" {
			total = s.Summary
		}
	}
	assert.Equal(t, 2, total.Count)
	assert.InDelta(t, 4, total.Min, 1e-9)
	assert.InDelta(t, 20, total.Max, 1e-9)

	require.Len(t, sec.Figures, 5)
	fig := sec.Figures[4]
	assert.Equal(t, "waiting_b1_b5", fig.Name)
	assert.Equal(t, report.FolderWaitingTimes, fig.Folder)
	assert.Equal(t, "Waiting time between b1 and b5", fig.Title)
	require.Len(t, fig.Panels, 2)
	assert.Equal(t, fig.Panels[0].Edges, fig.Panels[1].Edges, "datasets share bin edges")
	assert.InDelta(t, 4, fig.Panels[0].Edges[0], 1e-9)
	assert.InDelta(t, 20, fig.Panels[0].Edges[4], 1e-9)
	assert.Equal(t, []float64{1, 0, 0, 1}, fig.Panels[0].Counts)
	assert.Equal(t, []float64{0, 0, 1, 0}, fig.Panels[1].Counts)
}

func TestTask_DefaultBinsAndNegativeSegments(t *testing.T) {
	ds := &model.Dataset{Label: "historical", Records: []model.PassengerRecord{
		passage(t, model.Economy, 5, -2, 4, 3),
	}}
	task := New(config.TaskDef{Name: "waiting"}, model.DefaultParams(), logger.Nop())
	require.NoError(t, task.Process(context.Background(), []*model.Dataset{ds}))

	sec := task.Snapshot()
	assert.Len(t, sec.Figures[0].Panels[0].Counts, DefaultBins)
	for _, s := range sec.Stats {
		if s.Metric == "b2_b3" && s.Class == "economy" {
			assert.InDelta(t, -2, s.Summary.Mean, 1e-9)
		}
	}
}

func TestTask_BusinessOnly(t *testing.T) {
	ds := &model.Dataset{Label: "historical", Records: []model.PassengerRecord{
		passage(t, model.Economy, 10, 10, 10, 10),
		passage(t, model.Business, 1, 1, 1, 1),
		passage(t, model.Business, 2, 2, 2, 2),
	}}
	params := model.DefaultParams()
	params.BusinessOnly = true
	task := New(config.TaskDef{Name: "waiting", Bins: 2}, params, logger.Nop())
	require.NoError(t, task.Process(context.Background(), []*model.Dataset{ds}))
	sec := task.Snapshot()

	for _, s := range sec.Stats {
		assert.Equal(t, "business", s.Class)
	}
	panel := sec.Figures[4].Panels[0]
	assert.Equal(t, 2.0, panel.Counts[0]+panel.Counts[1], "economy passengers stay out of the histogram")
	assert.InDelta(t, 8, panel.Edges[len(panel.Edges)-1], 1e-9)
}
