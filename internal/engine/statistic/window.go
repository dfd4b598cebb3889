package statistic

import (
	"Go2GateSpectra/internal/model"
)

// NumBuckets is the number of size-second buckets needed to cover period.
func NumBuckets(period, size int64) int {
	return int((period + size - 1) / size)
}

// BucketStarts returns the start offset of every bucket in period.
func BucketStarts(period, size int64) []int64 {
	starts := make([]int64, NumBuckets(period, size))
	for i := range starts {
		starts[i] = int64(i) * size
	}
	return starts
}

func mod(t, period int64) int64 {
	t %= period
	if t < 0 {
		t += period
	}
	return t
}

// Bucketize counts the timestamps falling into each fixed-size bucket of one
// period. Timestamps are reduced modulo period first.
func Bucketize(times []int64, size, period int64) []int {
	counts := make([]int, NumBuckets(period, size))
	for _, t := range times {
		counts[mod(t, period)/size]++
	}
	return counts
}

// Windowed holds per-bucket series over one week, keyed by the checkpoint-5
// weekly timestamp.
type Windowed struct {
	Starts   []int64
	Exits    []float64
	MeanWait []float64 // minutes
	SLA      []float64
	InSystem []float64
}

// Window computes exits, mean total duration, SLA ratio and in-system counts
// per bucket of size seconds. An empty bucket has an SLA ratio of 0 and repeats
// the previous bucket's mean; the first bucket falls back to 0.
func Window(recs []*model.PassengerRecord, size, threshold int64) Windowed {
	n := NumBuckets(model.Week, size)
	w := Windowed{
		Starts:   BucketStarts(model.Week, size),
		Exits:    make([]float64, n),
		MeanWait: make([]float64, n),
		SLA:      make([]float64, n),
		InSystem: make([]float64, n),
	}

	sums := make([]float64, n)
	within := make([]float64, n)
	for _, r := range recs {
		b := mod(r.ExitWeek, model.Week) / size
		w.Exits[b]++
		sums[b] += float64(r.Total)
		if r.WithinSLA(threshold) {
			within[b]++
		}
	}

	for b := 0; b < n; b++ {
		if w.Exits[b] == 0 {
			if b > 0 {
				w.MeanWait[b] = w.MeanWait[b-1]
			}
			continue
		}
		w.MeanWait[b] = sums[b] / w.Exits[b] / model.Minute
		w.SLA[b] = within[b] / w.Exits[b]
	}

	for b, start := range w.Starts {
		w.InSystem[b] = float64(InSystemAt(recs, start))
	}
	return w
}

// InSystemAt counts passengers between checkpoint 1 and checkpoint 5 at the
// weekly offset t, wrapping around the end of the week.
func InSystemAt(recs []*model.PassengerRecord, t int64) int {
	n := 0
	for _, r := range recs {
		if r.Total <= 0 {
			continue
		}
		if r.Total >= model.Week || mod(t-r.Weekly, model.Week) < r.Total {
			n++
		}
	}
	return n
}
