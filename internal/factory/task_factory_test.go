package factory

import (
	"context"
	"errors"
	"testing"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTask struct{ name string }

func (s *stubTask) Name() string                                    { return s.name }
func (s *stubTask) Process(context.Context, []*model.Dataset) error { return nil }
func (s *stubTask) Snapshot() report.Section                        { return report.Section{Task: s.name} }
func (s *stubTask) Reset()                                          {}

type stubWriter struct{}

func (stubWriter) Name() string                       { return "stub" }
func (stubWriter) Write(*report.Report, string) error { return nil }

func init() {
	RegisterTask("stub", func(def config.TaskDef, env Env) (model.Task, error) {
		return &stubTask{name: def.Name}, nil
	})
	RegisterTask("broken", func(config.TaskDef, Env) (model.Task, error) {
		return nil, errors.New("boom")
	})
	RegisterWriter("stub", func(config.WriterDef, Env) (model.Writer, error) { return stubWriter{}, nil })
	RegisterWriter("offline", func(config.WriterDef, Env) (model.Writer, error) {
		return nil, errors.New("connection refused")
	})
}

func TestCreateTasks(t *testing.T) {
	env := Env{Params: model.DefaultParams(), Log: logger.Nop()}

	tasks, err := CreateTasks(&config.Config{Tasks: []config.TaskDef{{Name: "a", Type: "stub"}, {Name: "b", Type: "stub"}}}, env)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[1].Name())

	_, err = CreateTasks(&config.Config{Tasks: []config.TaskDef{{Name: "x", Type: "nope"}}}, env)
	assert.ErrorContains(t, err, "unknown task type")

	_, err = CreateTasks(&config.Config{Tasks: []config.TaskDef{{Name: "x", Type: "broken"}}}, env)
	assert.ErrorContains(t, err, "boom")
	assert.Contains(t, TaskTypes(), "stub")
}

func TestCreateWriters(t *testing.T) {
	env := Env{Params: model.DefaultParams(), Log: logger.Nop()}
	cfg := &config.Config{Writers: []config.WriterDef{
		{Type: "stub", Enabled: true},
		{Type: "stub", Enabled: false},
		{Type: "offline", Enabled: true},
	}}
	writers, err := CreateWriters(cfg, env)
	require.NoError(t, err)
	assert.Len(t, writers, 1, "disabled and failing writers are skipped")

	_, err = CreateWriters(&config.Config{Writers: []config.WriterDef{{Type: "nope", Enabled: true}}}, env)
	assert.Error(t, err)
}

func TestRegisterTask_Duplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterTask("stub", func(config.TaskDef, Env) (model.Task, error) { return nil, nil })
	})
}
