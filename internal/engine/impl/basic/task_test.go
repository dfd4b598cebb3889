package basic

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

// journey derives a record entering at start and spending total between b1 and b5.
func journey(t *testing.T, class model.PassengerClass, start string, total time.Duration) model.PassengerRecord {
	t.Helper()
	d, err := derive.New("%d.%m.%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)
	begin, err := time.ParseInLocation("02.01.2006 15:04", start, time.UTC)
	require.NoError(t, err)

	rec := model.PassengerRecord{Class: class}
	for i := range rec.Checkpoints {
		at := begin.Add(total * time.Duration(i) / (model.NumCheckpoints - 1))
		rec.Checkpoints[i] = at.Format("02.01.2006 15:04:05")
	}
	require.NoError(t, d.Derive(&rec))
	return rec
}

func dataset(t *testing.T) *model.Dataset {
	return &model.Dataset{Label: "historical", Records: []model.PassengerRecord{
		journey(t, model.Economy, "01.01.2024 06:00", 24*time.Minute),
		journey(t, model.Business, "01.01.2024 10:00", 40*time.Minute),
		journey(t, model.Economy, "06.01.2024 12:00", 12*time.Minute),
	}}
}

func find(t *testing.T, sec report.Section, group, class string) report.Summary {
	t.Helper()
	for _, s := range sec.Stats {
		if s.Group == group && s.Class == class {
			return s.Summary
		}
	}
	t.Fatalf("no stat for %s/%s", group, class)
	return report.Summary{}
}

func TestTask_WeekdayWeekend(t *testing.T) {
	task, err := New(config.TaskDef{Name: "basic"}, model.DefaultParams(), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, task.Process(context.Background(), []*model.Dataset{dataset(t)}))

	sec := task.Snapshot()
	assert.Equal(t, "basic", sec.Type)
	assert.Len(t, sec.Stats, 9, "three groups times three classes")

	weekdayEconomy := find(t, sec, "weekday", "economy")
	assert.Equal(t, 1, weekdayEconomy.Count)
	assert.InDelta(t, 24, weekdayEconomy.Mean, 1e-9)

	assert.Equal(t, report.Summary{}, find(t, sec, "weekend", "business"), "empty groups report zeros")

	all := find(t, sec, "complete", "all")
	assert.Equal(t, 3, all.Count)
	assert.InDelta(t, 12, all.Min, 1e-9)
	assert.InDelta(t, 40, all.Max, 1e-9)
	assert.InDelta(t, 76.0/3, all.Mean, 1e-9)

	require.Len(t, sec.Figures, 6)
	fig := sec.Figures[0]
	assert.Equal(t, report.FolderImages, fig.Folder)
	assert.Equal(t, "historical_arrival_economy_weekday", fig.Name)
	assert.Len(t, fig.Panels[0].Counts, 24)
	assert.EqualValues(t, 1, fig.Panels[0].Counts[6])
}

func TestTask_SingleDayAndBusinessOnly(t *testing.T) {
	params := model.DefaultParams()
	params.BusinessOnly = true
	task, err := New(config.TaskDef{Name: "days", Grouping: GroupingSingleDay}, params, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, task.Process(context.Background(), []*model.Dataset{dataset(t)}))

	sec := task.Snapshot()
	require.Len(t, sec.Stats, 7)
	for _, s := range sec.Stats {
		assert.Equal(t, "business", s.Class)
	}
	assert.Equal(t, 1, find(t, sec, "monday", "business").Count)

	task.Reset()
	assert.Empty(t, task.Snapshot().Stats)
}

func TestNew_UnknownGrouping(t *testing.T) {
	_, err := New(config.TaskDef{Name: "x", Grouping: "hourly"}, model.DefaultParams(), logger.Nop())
	assert.Error(t, err)
}

func TestTask_Cancelled(t *testing.T) {
	task, err := New(config.TaskDef{Name: "basic"}, model.DefaultParams(), logger.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, task.Process(ctx, []*model.Dataset{dataset(t)}), context.Canceled)
}
