// Package report holds the structured results of one analysis run. Tasks fill
// sections, writers serialize the finished report once at the end of the run.
package report

import (
	"fmt"
	"time"
)

// Output folders for rendered figures.
const (
	FolderImages        = "Images"
	FolderDistributions = "Distribution_plots"
	FolderWaitingTimes  = "WaitingTimes"
	FolderTimeSeries    = "TimeSeries"
)

// Summary is the basic statistics block for one group, in minutes.
// An empty group yields a zero Summary with Count == 0.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Stat is a Summary tagged with the group it was computed for.
type Stat struct {
	Dataset string  `json:"dataset"`
	Group   string  `json:"group"`  // e.g. "weekday", "monday", "complete"
	Class   string  `json:"class"`  // economy, business or all
	Metric  string  `json:"metric"` // total, b1_b2, ...
	Summary Summary `json:"summary"`
}

// Series is a value per fixed-size bucket of a repeating period.
type Series struct {
	Dataset    string    `json:"dataset"`
	Name       string    `json:"name"`
	BucketSize int64     `json:"bucket_size"`
	Starts     []int64   `json:"starts"`
	Values     []float64 `json:"values"`
}

// Histogram is one panel of a figure. Edges has len(Counts)+1 entries.
type Histogram struct {
	Label  string    `json:"label"`
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// Point is a single curve sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Figure describes one image to render. Panels share bin edges when they are
// compared side by side.
type Figure struct {
	Name   string      `json:"name"`
	Folder string      `json:"folder"`
	Title  string      `json:"title"`
	XLabel string      `json:"x_label"`
	YLabel string      `json:"y_label"`
	Panels []Histogram `json:"panels"`
	Curve  []Point     `json:"curve,omitempty"`
}

// Scalar is a single named number for a dataset.
type Scalar struct {
	Dataset string  `json:"dataset"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
}

// Candidate is one ranked distribution family.
type Candidate struct {
	Family string             `json:"family"`
	Params map[string]float64 `json:"params"`
	SSE    float64            `json:"sse"`
}

// Fit records the outcome of fitting a sample. Err is set when fitting failed
// or timed out; Ranking is ordered best first.
type Fit struct {
	Sample  string      `json:"sample"`
	Size    int         `json:"size"`
	Best    string      `json:"best"`
	Ranking []Candidate `json:"ranking,omitempty"`
	Err     string      `json:"error,omitempty"`
}

// Section is the output of one task.
type Section struct {
	Task    string   `json:"task"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Stats   []Stat   `json:"stats,omitempty"`
	Series  []Series `json:"series,omitempty"`
	Figures []Figure `json:"figures,omitempty"`
	Scalars []Scalar `json:"scalars,omitempty"`
	Fits    []Fit    `json:"fits,omitempty"`
}

// DatasetInfo records load counters of one input file.
type DatasetInfo struct {
	Label      string `json:"label"`
	Path       string `json:"path"`
	RawRows    int    `json:"raw_rows"`
	Retained   int    `json:"retained"`
	Dropped    int    `json:"dropped"`
	Skipped    int    `json:"skipped"`
	OutOfOrder int    `json:"out_of_order"`
}

// Report is the full result of a run.
type Report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Datasets    []DatasetInfo `json:"datasets"`
	Sections    []Section     `json:"sections"`
}

// New creates an empty report stamped with the given time.
func New(now time.Time) *Report {
	return &Report{
		RunID:       now.Format("2006-01-02_15-04-05"),
		GeneratedAt: now,
	}
}

// Section returns the section produced by the named task.
func (r *Report) Section(task string) (*Section, bool) {
	for i := range r.Sections {
		if r.Sections[i].Task == task {
			return &r.Sections[i], true
		}
	}
	return nil, false
}

// Scalar looks up a scalar of a task by dataset and name.
func (r *Report) Scalar(task, dataset, name string) (float64, error) {
	sec, ok := r.Section(task)
	if !ok {
		return 0, fmt.Errorf("no section for task '%s'", task)
	}
	for _, s := range sec.Scalars {
		if s.Name == name && (dataset == "" || s.Dataset == dataset) {
			return s.Value, nil
		}
	}
	return 0, fmt.Errorf("task '%s' has no scalar '%s' for dataset '%s'", task, name, dataset)
}

// FigureCount returns the number of figures across all sections.
func (r *Report) FigureCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Figures)
	}
	return n
}
