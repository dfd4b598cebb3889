package statistic

import (
	"math"
	"sort"

	"Go2GateSpectra/internal/report"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Edges returns bins+1 evenly spaced bin edges over [lo, hi].
func Edges(lo, hi float64, bins int) []float64 {
	if bins < 1 {
		bins = 1
	}
	if hi <= lo {
		lo, hi = lo-0.5, lo+0.5
	}
	return floats.Span(make([]float64, bins+1), lo, hi)
}

// SharedEdges spans the joint range of all samples so histograms of
// different datasets can be compared bin by bin.
func SharedEdges(bins int, samples ...[]float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		if len(s) == 0 {
			continue
		}
		lo = math.Min(lo, floats.Min(s))
		hi = math.Max(hi, floats.Max(s))
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	return Edges(lo, hi, bins)
}

// Histogram counts sample values per bin. The last bin is closed on the right;
// values outside the edges are ignored.
func Histogram(label string, sample, edges []float64) report.Histogram {
	lo, hi := edges[0], edges[len(edges)-1]
	x := make([]float64, 0, len(sample))
	for _, v := range sample {
		if v >= lo && v <= hi {
			x = append(x, v)
		}
	}
	sort.Float64s(x)

	dividers := append([]float64(nil), edges...)
	dividers[len(dividers)-1] = math.Nextafter(hi, math.Inf(1))

	return report.Histogram{
		Label:  label,
		Edges:  append([]float64(nil), edges...),
		Counts: stat.Histogram(nil, dividers, x, nil),
	}
}

// Centers returns the midpoints of consecutive edges.
func Centers(edges []float64) []float64 {
	out := make([]float64, len(edges)-1)
	for i := range out {
		out[i] = (edges[i] + edges[i+1]) / 2
	}
	return out
}

// Density normalizes histogram counts so the histogram integrates to 1.
func Density(h report.Histogram) []float64 {
	total := floats.Sum(h.Counts)
	out := make([]float64, len(h.Counts))
	if total == 0 {
		return out
	}
	for i, c := range h.Counts {
		out[i] = c / (total * (h.Edges[i+1] - h.Edges[i]))
	}
	return out
}

// ToMinutes converts seconds to minutes.
func ToMinutes(seconds []float64) []float64 {
	out := make([]float64, len(seconds))
	for i, s := range seconds {
		out[i] = s / 60
	}
	return out
}
