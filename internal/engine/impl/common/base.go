// Package common holds what every analysis task shares: the section buffer
// behind Snapshot/Reset and the class groups honouring business_only.
package common

import (
	"strings"
	"sync"

	"Go2GateSpectra/internal/engine/statistic"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"
)

// Base implements Name, Snapshot and Reset of model.Task. Tasks embed it and
// append their results through the Add methods.
type Base struct {
	mu      sync.Mutex
	name    string
	typ     string
	title   string
	section report.Section
}

// NewBase creates an empty result buffer for a task.
func NewBase(name, typ, title string) *Base {
	b := &Base{name: name, typ: typ, title: title}
	b.Reset()
	return b
}

func (b *Base) Name() string { return b.name }

// Snapshot returns a copy of the section so writers never share slices with the task.
func (b *Base) Snapshot() report.Section {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.section
	s.Stats = append([]report.Stat(nil), b.section.Stats...)
	s.Series = append([]report.Series(nil), b.section.Series...)
	s.Figures = append([]report.Figure(nil), b.section.Figures...)
	s.Scalars = append([]report.Scalar(nil), b.section.Scalars...)
	s.Fits = append([]report.Fit(nil), b.section.Fits...)
	return s
}

func (b *Base) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.section = report.Section{Task: b.name, Type: b.typ, Title: b.title}
}

func (b *Base) AddStat(s ...report.Stat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.section.Stats = append(b.section.Stats, s...)
}

func (b *Base) AddSeries(s ...report.Series) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.section.Series = append(b.section.Series, s...)
}

func (b *Base) AddFigure(f ...report.Figure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.section.Figures = append(b.section.Figures, f...)
}

func (b *Base) AddScalar(s ...report.Scalar) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.section.Scalars = append(b.section.Scalars, s...)
}

func (b *Base) AddFit(f ...report.Fit) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.section.Fits = append(b.section.Fits, f...)
}

// Classes returns the per-class groups a task reports. With business_only
// set only business passengers are kept; withAll appends the "all" group.
func Classes(p model.AnalysisParams, withAll bool) []statistic.Group {
	var out []statistic.Group
	for _, g := range statistic.ClassGroups() {
		switch {
		case g.Name == "all":
			if withAll && !p.BusinessOnly {
				out = append(out, g)
			}
		case p.BusinessOnly && g.Name != string(model.Business):
		default:
			out = append(out, g)
		}
	}
	return out
}

// InScope selects the records a task analyses: business class only when
// business_only is set, every record otherwise.
func InScope(p model.AnalysisParams) func(*model.PassengerRecord) bool {
	if !p.BusinessOnly {
		return func(*model.PassengerRecord) bool { return true }
	}
	return func(r *model.PassengerRecord) bool { return r.Class == model.Business }
}

// FileName turns a figure title into a file name stem.
func FileName(parts ...string) string {
	s := strings.ToLower(strings.Join(parts, "_"))
	return strings.NewReplacer(" ", "_", "/", "-", ":", "").Replace(s)
}
