package factory

import (
	"fmt"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/pkg/logger"
)

// Env carries what every task and writer constructor may need.
type Env struct {
	Params model.AnalysisParams
	Log    *logger.Logger
}

// TaskFactory builds a task from its definition.
type TaskFactory func(def config.TaskDef, env Env) (model.Task, error)

// WriterFactory builds a writer from its definition.
type WriterFactory func(def config.WriterDef, env Env) (model.Writer, error)

var (
	taskRegistry   = make(map[string]TaskFactory)
	writerRegistry = make(map[string]WriterFactory)
)

// RegisterTask registers a task type with its factory function.
func RegisterTask(typ string, factory TaskFactory) {
	if _, exists := taskRegistry[typ]; exists {
		panic(fmt.Sprintf("task type '%s' already registered", typ))
	}
	taskRegistry[typ] = factory
}

// RegisterWriter registers a writer type with its factory function.
func RegisterWriter(typ string, factory WriterFactory) {
	if _, exists := writerRegistry[typ]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", typ))
	}
	writerRegistry[typ] = factory
}

// TaskTypes lists the registered task types.
func TaskTypes() []string {
	types := make([]string, 0, len(taskRegistry))
	for t := range taskRegistry {
		types = append(types, t)
	}
	return types
}

// CreateTasks builds every configured task, in config order.
func CreateTasks(cfg *config.Config, env Env) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(cfg.Tasks))
	for _, def := range cfg.Tasks {
		env.Log.Info("Creating task", logger.String("name", def.Name), logger.String("type", def.Type))

		factory, ok := taskRegistry[def.Type]
		if !ok {
			return nil, fmt.Errorf("unknown task type: '%s'", def.Type)
		}
		task, err := factory(def, env)
		if err != nil {
			return nil, fmt.Errorf("error creating task '%s': %w", def.Name, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// CreateWriters builds every enabled writer. A writer that fails to start is
// logged and skipped so the others still run.
func CreateWriters(cfg *config.Config, env Env) ([]model.Writer, error) {
	var writers []model.Writer
	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		factory, ok := writerRegistry[def.Type]
		if !ok {
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}
		w, err := factory(def, env)
		if err != nil {
			env.Log.Warn("Failed to create writer, skipping", logger.String("type", def.Type), logger.Error(err))
			continue
		}
		writers = append(writers, w)
	}
	return writers, nil
}
