// Package fitting ranks candidate distribution families against a sample by
// the squared error between the sample's density histogram and each fitted pdf.
package fitting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"Go2GateSpectra/internal/engine/statistic"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

// MinSampleSize is the smallest sample the fitter attempts.
const MinSampleSize = 2

// Fitter implements model.Fitter.
type Fitter struct {
	families []string
	timeout  time.Duration
	log      *logger.Logger
}

// New validates the family names. An empty list selects DefaultFamilies.
func New(families []string, timeout time.Duration, log *logger.Logger) (*Fitter, error) {
	if len(families) == 0 {
		families = DefaultFamilies
	}
	for _, f := range families {
		if !Supported(f) {
			return nil, fmt.Errorf("unsupported distribution family '%s'", f)
		}
	}
	return &Fitter{families: families, timeout: timeout, log: log.Named("fitter")}, nil
}

// Fit ranks every configured family on sample. Errors and timeouts are
// returned inside the Fit.
func (f *Fitter) Fit(ctx context.Context, name string, sample []float64, bins int) report.Fit {
	result := report.Fit{Sample: name, Size: len(sample)}
	if len(sample) < MinSampleSize {
		result.Err = fmt.Sprintf("sample too small (%d values)", len(sample))
		return result
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	done := make(chan []report.Candidate, 1)
	go func() {
		done <- f.rank(ctx, sample, bins)
	}()

	select {
	case ranking := <-done:
		if len(ranking) == 0 {
			result.Err = "no family could be fitted"
			if ctx.Err() != nil {
				result.Err = fmt.Sprintf("fitting aborted: %v", ctx.Err())
			}
			break
		}
		result.Ranking = ranking
		result.Best = ranking[0].Family
	case <-ctx.Done():
		result.Err = fmt.Sprintf("fitting aborted: %v", ctx.Err())
	}

	if result.Err != "" {
		f.log.Warn("Distribution fitting failed", logger.String("sample", name), logger.String("reason", result.Err))
	} else {
		f.log.Debug("Distribution fitted", logger.String("sample", name), logger.String("best", result.Best),
			logger.Float64("sse", result.Ranking[0].SSE))
	}
	return result
}

func (f *Fitter) rank(ctx context.Context, sample []float64, bins int) []report.Candidate {
	hist := statistic.Histogram("", sample, statistic.SharedEdges(bins, sample))
	observed := statistic.Density(hist)
	centers := statistic.Centers(hist.Edges)

	var ranking []report.Candidate
	for _, family := range f.families {
		if ctx.Err() != nil {
			break
		}
		d, err := estimators[family](sample)
		if err != nil {
			continue
		}
		var sse float64
		for i, c := range centers {
			diff := d.prob(c) - observed[i]
			sse += diff * diff
		}
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			continue
		}
		ranking = append(ranking, report.Candidate{Family: family, Params: d.params, SSE: sse})
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].SSE < ranking[j].SSE })
	return ranking
}

// Curve samples the pdf of the best candidate at n points over [lo, hi],
// scaled by scale (total count times bin width turns a density into counts).
func Curve(fit report.Fit, sample []float64, lo, hi, scale float64, n int) []report.Point {
	if fit.Best == "" || n < 2 || hi <= lo {
		return nil
	}
	d, err := estimators[fit.Best](sample)
	if err != nil {
		return nil
	}
	pts := make([]report.Point, n)
	step := (hi - lo) / float64(n-1)
	for i := range pts {
		x := lo + float64(i)*step
		pts[i] = report.Point{X: x, Y: d.prob(x) * scale}
	}
	return pts
}
