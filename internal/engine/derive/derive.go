// Package derive turns the raw checkpoint text of a record into epoch seconds,
// calendar fields and checkpoint intervals.
package derive

import (
	"fmt"
	"strings"
	"time"

	"Go2GateSpectra/internal/model"

	"github.com/ncruces/go-strftime"
)

// ParseError reports checkpoint text that does not match the timestamp format.
type ParseError struct {
	Row    int
	Column string
	Text   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d column %s: cannot parse %q: %v", e.Row, e.Column, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Deriver parses timestamps in one strptime format, interpreting the wall
// clock in one location.
type Deriver struct {
	format string
	loc    *time.Location
}

// New validates the format and returns a Deriver. A nil location means time.Local.
func New(format string, loc *time.Location) (*Deriver, error) {
	if _, err := strftime.Layout(format); err != nil {
		return nil, fmt.Errorf("invalid timestamp format %q: %w", format, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Deriver{format: format, loc: loc}, nil
}

// Location returns the location wall clocks are read in.
func (d *Deriver) Location() *time.Location { return d.loc }

// ParseTimestamp returns the epoch seconds of text read as a wall clock in the deriver's location.
func (d *Deriver) ParseTimestamp(text string) (int64, error) {
	t, err := strftime.Parse(d.format, strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, d.loc)
	return local.Unix(), nil
}

// Derive fills every derived field of rec from its checkpoint text.
func (d *Deriver) Derive(rec *model.PassengerRecord) error {
	for i, text := range rec.Checkpoints {
		epoch, err := d.ParseTimestamp(text)
		if err != nil {
			return &ParseError{Row: rec.Row, Column: CheckpointColumn(i), Text: text, Err: err}
		}
		rec.Epoch[i] = epoch
	}

	entry := time.Unix(rec.Epoch[0], 0).In(d.loc)
	rec.Weekday = Weekday(entry)
	rec.Hour = entry.Hour()
	rec.Weekly = d.Weekly(rec.Epoch[0])
	rec.ExitWeek = d.Weekly(rec.Epoch[model.NumCheckpoints-1])

	for i := 0; i < model.NumCheckpoints-1; i++ {
		rec.Segments[i] = rec.Epoch[i+1] - rec.Epoch[i]
	}
	rec.Total = rec.Epoch[model.NumCheckpoints-1] - rec.Epoch[0]
	return nil
}

// Weekly returns seconds since Monday 00:00 of the wall clock at epoch.
func (d *Deriver) Weekly(epoch int64) int64 {
	_, offset := time.Unix(epoch, 0).In(d.loc).Zone()
	return WeeklyNormalized(epoch + int64(offset))
}

// WeeklyNormalized maps epoch seconds onto [0, 1 week). Unix time 0 was a
// Thursday, so shifting by three days puts Monday at 0.
func WeeklyNormalized(epoch int64) int64 {
	w := (epoch + 3*model.Day) % model.Week
	if w < 0 {
		w += model.Week
	}
	return w
}

// Weekday numbers days Monday=0..Sunday=6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// HourOfDay returns the wall-clock hour of epoch in loc.
func HourOfDay(epoch int64, loc *time.Location) int {
	return time.Unix(epoch, 0).In(loc).Hour()
}

// CheckpointColumn returns the column name of the zero-based checkpoint index.
func CheckpointColumn(i int) string {
	return fmt.Sprintf("b%d", i+1)
}
