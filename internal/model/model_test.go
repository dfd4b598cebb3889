package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassengerRecord(t *testing.T) {
	r := PassengerRecord{Total: 1500, Segments: [4]int64{300, 400, 500, 300}, Weekly: Day + 6*Hour}
	assert.False(t, r.OutOfOrder())
	assert.True(t, r.WithinSLA(1800))
	assert.False(t, r.WithinSLA(1499))
	assert.EqualValues(t, 6*Hour, r.TimeOfDay())

	r.Segments[2] = -10
	assert.True(t, r.OutOfOrder())
}

func TestDataset_Select(t *testing.T) {
	ds := &Dataset{Records: []PassengerRecord{
		{Row: 1, Class: Economy},
		{Row: 2, Class: Business, Segments: [4]int64{-1, 0, 0, 0}},
		{Row: 3, Class: Economy},
	}}

	eco := ds.Select(func(r *PassengerRecord) bool { return r.Class == Economy })
	assert.Len(t, eco, 2)
	assert.Equal(t, 3, eco[1].Row)
	assert.Equal(t, 1, ds.OutOfOrder())
}
