package common

import (
	"testing"

	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/internal/report"

	"github.com/stretchr/testify/assert"
)

func TestBase_SnapshotIsACopy(t *testing.T) {
	b := NewBase("sla", "sla", "SLA compliance")
	b.AddScalar(report.Scalar{Dataset: "historical", Name: "sla_ratio", Value: 0.7})

	snap := b.Snapshot()
	snap.Scalars[0].Value = 1
	assert.Equal(t, 0.7, b.Snapshot().Scalars[0].Value)
	assert.Equal(t, "sla", snap.Task)

	b.Reset()
	snap = b.Snapshot()
	assert.Empty(t, snap.Scalars)
	assert.Equal(t, "SLA compliance", snap.Title)
}

func TestClasses(t *testing.T) {
	names := func(p model.AnalysisParams, withAll bool) []string {
		var out []string
		for _, g := range Classes(p, withAll) {
			out = append(out, g.Name)
		}
		return out
	}
	p := model.DefaultParams()
	assert.Equal(t, []string{"economy", "business", "all"}, names(p, true))
	assert.Equal(t, []string{"economy", "business"}, names(p, false))

	p.BusinessOnly = true
	assert.Equal(t, []string{"business"}, names(p, true))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "historical_arrival_economy_monday_daytime", FileName("historical", "arrival", "economy Monday daytime"))
}
