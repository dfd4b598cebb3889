package statistic

import (
	"Go2GateSpectra/internal/model"
)

// Group is a named record predicate.
type Group struct {
	Name  string
	Match func(*model.PassengerRecord) bool
}

// Select applies g to every record of ds.
func (g Group) Select(ds *model.Dataset) []*model.PassengerRecord {
	return ds.Select(g.Match)
}

// Filter keeps the records of recs matching g.
func (g Group) Filter(recs []*model.PassengerRecord) []*model.PassengerRecord {
	var out []*model.PassengerRecord
	for _, r := range recs {
		if g.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// WeekdayNames maps weekday numbers (Monday=0) to names.
var WeekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// IsWorkingDay reports whether weekday is Monday..Friday.
func IsWorkingDay(weekday int) bool { return weekday < 5 }

// ClassGroups returns economy, business and all.
func ClassGroups() []Group {
	groups := make([]Group, 0, len(model.Classes)+1)
	for _, c := range model.Classes {
		class := c
		groups = append(groups, Group{Name: string(class), Match: func(r *model.PassengerRecord) bool { return r.Class == class }})
	}
	return append(groups, Group{Name: "all", Match: func(*model.PassengerRecord) bool { return true }})
}

// WeekPartGroups returns weekday, weekend and complete.
func WeekPartGroups() []Group {
	return []Group{
		{Name: "weekday", Match: func(r *model.PassengerRecord) bool { return IsWorkingDay(r.Weekday) }},
		{Name: "weekend", Match: func(r *model.PassengerRecord) bool { return !IsWorkingDay(r.Weekday) }},
		{Name: "complete", Match: func(*model.PassengerRecord) bool { return true }},
	}
}

// SingleDayGroups returns one group per weekday.
func SingleDayGroups() []Group {
	groups := make([]Group, len(WeekdayNames))
	for i, name := range WeekdayNames {
		day := i
		groups[i] = Group{Name: name, Match: func(r *model.PassengerRecord) bool { return r.Weekday == day }}
	}
	return groups
}

// DayWindow splits a day into daytime [Start, End) and the complementary night.
// Bounds are seconds from midnight.
type DayWindow struct {
	Start int64
	End   int64
}

// IsDay reports whether the time of day tod is inside daytime.
func (w DayWindow) IsDay(tod int64) bool {
	return tod >= w.Start && tod < w.End
}

// DayLength is the length of daytime in seconds.
func (w DayWindow) DayLength() int64 { return w.End - w.Start }

// NightLength is the length of the night in seconds.
func (w DayWindow) NightLength() int64 { return model.Day - w.DayLength() }

// Shift maps a night time of day onto [0, NightLength) so that the night
// following day_end is contiguous.
func (w DayWindow) Shift(tod int64) int64 {
	return mod(tod+(model.Day-w.End), model.Day)
}

// Days restricts a weekday predicate to daytime arrivals.
func (w DayWindow) Days(name string, onDay func(weekday int) bool) Group {
	return Group{Name: name, Match: func(r *model.PassengerRecord) bool {
		return onDay(r.Weekday) && w.IsDay(r.TimeOfDay())
	}}
}

// Nights returns the nights starting on the weekdays selected by onDay. The
// night of day i is the evening of i after day_end plus the early morning of
// day i+1 before day_start.
func (w DayWindow) Nights(name string, onDay func(weekday int) bool) Group {
	return Group{Name: name, Match: func(r *model.PassengerRecord) bool {
		tod := r.TimeOfDay()
		if tod >= w.End {
			return onDay(r.Weekday)
		}
		if tod < w.Start {
			return onDay((r.Weekday + 6) % 7)
		}
		return false
	}}
}

// Period is a daytime or night group with the hour range its arrival sample covers.
type Period struct {
	Group
	Night bool
}

// SingleDayPeriods returns daytime and night of every weekday.
func (w DayWindow) SingleDayPeriods() []Period {
	var out []Period
	for i, name := range WeekdayNames {
		day := i
		on := func(weekday int) bool { return weekday == day }
		out = append(out,
			Period{Group: w.Days(name+" daytime", on)},
			Period{Group: w.Nights(name+" night", on), Night: true},
		)
	}
	return out
}

// WorkingDayWeekendPeriods returns daytime and night of working days and of the weekend.
func (w DayWindow) WorkingDayWeekendPeriods() []Period {
	weekend := func(weekday int) bool { return !IsWorkingDay(weekday) }
	return []Period{
		{Group: w.Days("working day daytime", IsWorkingDay)},
		{Group: w.Nights("working day night", IsWorkingDay), Night: true},
		{Group: w.Days("weekend daytime", weekend)},
		{Group: w.Nights("weekend night", weekend), Night: true},
	}
}

// ArrivalHours returns the arrival sample of a period in hours: the time of
// day for daytime, the shifted time of day for nights.
func (w DayWindow) ArrivalHours(p Period, recs []*model.PassengerRecord) []float64 {
	out := make([]float64, 0, len(recs))
	for _, r := range recs {
		tod := r.TimeOfDay()
		if p.Night {
			tod = w.Shift(tod)
		}
		out = append(out, float64(tod)/model.Hour)
	}
	return out
}

// HourRange is the histogram range of a period's arrival sample in hours.
func (w DayWindow) HourRange(p Period) (lo, hi float64) {
	if p.Night {
		return 0, float64(w.NightLength()) / model.Hour
	}
	return float64(w.Start) / model.Hour, float64(w.End) / model.Hour
}
