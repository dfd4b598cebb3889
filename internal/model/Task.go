package model

import (
	"context"

	"Go2GateSpectra/internal/report"
)

// Task is a single, self-contained analysis over the loaded datasets
// (basic statistics, arrival histograms, SLA series, ...).
type Task interface {
	Name() string
	// Process consumes every dataset of the run. Datasets are read-only.
	Process(ctx context.Context, datasets []*Dataset) error
	// Snapshot returns a copy of the accumulated results.
	Snapshot() report.Section
	Reset()
}
