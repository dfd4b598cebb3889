package model

import (
	"context"

	"Go2GateSpectra/internal/report"
)

// Fitter fits candidate distribution families to a numeric sample. Failures
// and timeouts are reported in the returned Fit, never as a run abort.
type Fitter interface {
	Fit(ctx context.Context, name string, sample []float64, bins int) report.Fit
}
