package derive

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"Go2GateSpectra/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(row int, checkpoints ...string) model.PassengerRecord {
	rec := model.PassengerRecord{Row: row, Class: model.Economy}
	copy(rec.Checkpoints[:], checkpoints)
	return rec
}

func TestDerive_EndToEndExample(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	for _, loc := range []*time.Location{time.UTC, berlin} {
		t.Run(loc.String(), func(t *testing.T) {
			d, err := New("%d.%m.%Y %H:%M:%S", loc)
			require.NoError(t, err)

			rec := record(1,
				"01.01.2024 06:00:00",
				"01.01.2024 06:05:00",
				"01.01.2024 06:12:00",
				"01.01.2024 06:20:00",
				"01.01.2024 06:25:00",
			)
			require.NoError(t, d.Derive(&rec))

			assert.EqualValues(t, 1500, rec.Total)
			assert.True(t, rec.WithinSLA(1800))
			assert.Equal(t, 0, rec.Weekday, "2024-01-01 was a Monday")
			assert.Equal(t, 6, rec.Hour)
			assert.EqualValues(t, 6*model.Hour, rec.Weekly)
			assert.EqualValues(t, 6*model.Hour+25*model.Minute, rec.ExitWeek)
			assert.Equal(t, [4]int64{300, 420, 480, 300}, rec.Segments)
		})
	}
}

func TestWeekly_UsesWallClock(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	d, err := New("%d.%m.%Y %H:%M:%S", berlin)
	require.NoError(t, err)

	// Monday 00:30 in Berlin is still Sunday 23:30 UTC.
	epoch, err := d.ParseTimestamp("01.01.2024 00:30:00")
	require.NoError(t, err)
	assert.EqualValues(t, 30*model.Minute, d.Weekly(epoch))
	assert.EqualValues(t, model.Week-30*model.Minute, WeeklyNormalized(epoch))

	// Summer time shifts the wall clock by two hours.
	epoch, err = d.ParseTimestamp("03.07.2024 12:00:00")
	require.NoError(t, err)
	assert.EqualValues(t, 2*model.Day+12*model.Hour, d.Weekly(epoch))
	assert.EqualValues(t, 2*model.Day+10*model.Hour, WeeklyNormalized(epoch))
}

func TestDerive_SlashFormat(t *testing.T) {
	d, err := New("%d/%m/%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)

	rec := record(3, "07/01/2024 23:59:00", "07/01/2024 23:59:30", "08/01/2024 00:01:00", "08/01/2024 00:02:00", "08/01/2024 00:10:00")
	require.NoError(t, d.Derive(&rec))
	assert.Equal(t, 6, rec.Weekday, "2024-01-07 was a Sunday")
	assert.Equal(t, 23, rec.Hour)
	assert.EqualValues(t, 11*model.Minute, rec.Total)
}

func TestDerive_NegativeSegmentsPassThrough(t *testing.T) {
	d, err := New("%d.%m.%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)

	rec := record(2, "01.01.2024 06:00:00", "01.01.2024 06:10:00", "01.01.2024 06:05:00", "01.01.2024 06:20:00", "01.01.2024 06:30:00")
	require.NoError(t, d.Derive(&rec))
	assert.EqualValues(t, -300, rec.Segments[1])
	assert.True(t, rec.OutOfOrder())
	assert.EqualValues(t, 1800, rec.Total)
}

func TestDerive_ParseError(t *testing.T) {
	d, err := New("%d.%m.%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)

	rec := record(7, "01.01.2024 06:00:00", "2024-01-01 06:05", "01.01.2024 06:12:00", "01.01.2024 06:20:00", "01.01.2024 06:25:00")
	err = d.Derive(&rec)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 7, perr.Row)
	assert.Equal(t, "b2", perr.Column)
	assert.Equal(t, "2024-01-01 06:05", perr.Text)
	assert.Contains(t, perr.Error(), "row 7 column b2")
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New("%Q", time.UTC)
	assert.Error(t, err)
}

func TestWeeklyNormalized(t *testing.T) {
	t.Run("monday midnight is zero", func(t *testing.T) {
		monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
		assert.EqualValues(t, 0, WeeklyNormalized(monday))
	})

	t.Run("always inside one week", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 10000; i++ {
			epoch := rng.Int63n(4e9) - 2e9
			w := WeeklyNormalized(epoch)
			assert.GreaterOrEqual(t, w, int64(0))
			assert.Less(t, w, int64(model.Week))
		}
	})
}

func TestTotalEqualsSumOfSegments(t *testing.T) {
	d, err := New("%d.%m.%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		var cps []string
		at := base.Add(time.Duration(rng.Intn(7*24*3600)) * time.Second)
		for c := 0; c < model.NumCheckpoints; c++ {
			cps = append(cps, at.Format("02.01.2006 15:04:05"))
			at = at.Add(time.Duration(rng.Intn(1200)-200) * time.Second)
		}
		rec := record(i+1, cps...)
		require.NoError(t, d.Derive(&rec))

		var sum int64
		for _, s := range rec.Segments {
			sum += s
		}
		assert.Equal(t, rec.Total, sum)
	}
}

func TestWeekdayAndHour(t *testing.T) {
	sunday := time.Date(2024, 1, 7, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, Weekday(sunday))
	assert.Equal(t, 13, HourOfDay(sunday.Unix(), time.UTC))
	assert.Equal(t, "b5", CheckpointColumn(4))
}
