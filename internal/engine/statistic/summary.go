package statistic

import (
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metric names of the durations a record carries, segments first.
const (
	MetricTotal = "b1_b5"
)

// Metrics lists every duration metric in report order.
var Metrics = []string{"b1_b2", "b2_b3", "b3_b4", "b4_b5", MetricTotal}

// Values extracts a duration metric in seconds.
func Values(recs []*model.PassengerRecord, metric string) []float64 {
	out := make([]float64, 0, len(recs))
	idx := segmentIndex(metric)
	for _, r := range recs {
		if idx < 0 {
			out = append(out, float64(r.Total))
		} else {
			out = append(out, float64(r.Segments[idx]))
		}
	}
	return out
}

func segmentIndex(metric string) int {
	for i, m := range Metrics[:len(Metrics)-1] {
		if m == metric {
			return i
		}
	}
	return -1
}

// Summarize computes count, min, max, mean and sample standard deviation of
// a sample in seconds and reports them in minutes. An empty sample yields the
// zero Summary; a single value has a standard deviation of 0.
func Summarize(seconds []float64) report.Summary {
	n := len(seconds)
	if n == 0 {
		return report.Summary{}
	}
	s := report.Summary{
		Count: n,
		Min:   floats.Min(seconds) / model.Minute,
		Max:   floats.Max(seconds) / model.Minute,
		Mean:  stat.Mean(seconds, nil) / model.Minute,
	}
	if n > 1 {
		s.StdDev = stat.StdDev(seconds, nil) / model.Minute
	}
	return s
}

// SLARatio is the fraction of records whose total duration is at most
// threshold seconds, 0 for no records.
func SLARatio(recs []*model.PassengerRecord, threshold int64) float64 {
	if len(recs) == 0 {
		return 0
	}
	within := 0
	for _, r := range recs {
		if r.WithinSLA(threshold) {
			within++
		}
	}
	return float64(within) / float64(len(recs))
}

// HourlyCounts counts arrivals per checkpoint-1 hour of day, 0..23.
func HourlyCounts(recs []*model.PassengerRecord) [24]int {
	var counts [24]int
	for _, r := range recs {
		if r.Hour >= 0 && r.Hour < 24 {
			counts[r.Hour]++
		}
	}
	return counts
}
