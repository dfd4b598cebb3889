package model

import "time"

// PassengerClass is the travel class of a passenger, taken verbatim from the "type" column.
type PassengerClass string

const (
	Economy  PassengerClass = "economy"
	Business PassengerClass = "business"
)

// Classes lists the classes reported separately.
var Classes = []PassengerClass{Economy, Business}

// NumCheckpoints is the number of gates b1..b5 a passenger passes.
const NumCheckpoints = 5

// Calendar constants in seconds.
const (
	Minute = 60
	Hour   = 60 * Minute
	Day    = 24 * Hour
	Week   = 7 * Day
)

// PassengerRecord is one passenger journey. The derived fields are filled once
// by the deriver and never mutated afterwards.
type PassengerRecord struct {
	Row         int // 1-based data row of the source file
	Class       PassengerClass
	Checkpoints [NumCheckpoints]string

	Epoch    [NumCheckpoints]int64
	Weekday  int   // 0=Monday, from checkpoint 1
	Hour     int   // hour of day, from checkpoint 1
	Weekly   int64 // seconds since Monday 00:00 of checkpoint 1
	ExitWeek int64 // seconds since Monday 00:00 of checkpoint 5
	Total    int64
	Segments [NumCheckpoints - 1]int64
}

// OutOfOrder reports whether any checkpoint precedes its predecessor.
func (r *PassengerRecord) OutOfOrder() bool {
	for _, s := range r.Segments {
		if s < 0 {
			return true
		}
	}
	return false
}

// WithinSLA reports whether the whole journey took at most threshold seconds.
func (r *PassengerRecord) WithinSLA(threshold int64) bool {
	return r.Total <= threshold
}

// TimeOfDay is the checkpoint-1 offset into its day, in seconds.
func (r *PassengerRecord) TimeOfDay() int64 {
	return r.Weekly % Day
}

// Dataset is an ordered set of records from one source file.
type Dataset struct {
	Label   string
	Path    string
	Records []PassengerRecord

	RawRows int // data rows read, before cleaning
	Dropped int // rows without checkpoint 5
	Skipped int // malformed rows skipped when skipping is enabled
}

// OutOfOrder counts records with a negative segment.
func (d *Dataset) OutOfOrder() int {
	n := 0
	for i := range d.Records {
		if d.Records[i].OutOfOrder() {
			n++
		}
	}
	return n
}

// Select returns the records matching keep, in order.
func (d *Dataset) Select(keep func(*PassengerRecord) bool) []*PassengerRecord {
	var out []*PassengerRecord
	for i := range d.Records {
		if keep(&d.Records[i]) {
			out = append(out, &d.Records[i])
		}
	}
	return out
}

// AnalysisParams are the resolved analysis settings shared by all tasks.
// Times are seconds.
type AnalysisParams struct {
	DayStart     int64
	DayEnd       int64
	BucketSize   int64
	SLAThreshold int64
	Location     *time.Location
	BusinessOnly bool
}

// DefaultParams mirrors the defaults of the configuration layer.
func DefaultParams() AnalysisParams {
	return AnalysisParams{
		DayStart:     6 * Hour,
		DayEnd:       20 * Hour,
		BucketSize:   Hour,
		SLAThreshold: 30 * Minute,
		Location:     time.Local,
	}
}
