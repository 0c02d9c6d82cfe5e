package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestGenerateBoundary(t *testing.T) {
	// 08:00-23:00 with 90 minute slots: the last full slot is
	// 21:30-23:00 and no window may spill past closing time.
	date := day(2025, time.December, 3)
	slots, err := Generate(date, "08:00", "23:00", 90, at(2025, time.December, 2, 12, 0))
	require.NoError(t, err)
	require.Len(t, slots, 10)

	first := slots[0]
	assert.Equal(t, "08:00", first.StartLocal)
	assert.Equal(t, "09:30", first.EndLocal)
	assert.Equal(t, at(2025, time.December, 3, 8, 0), first.Start)

	last := slots[len(slots)-1]
	assert.Equal(t, "21:30", last.StartLocal)
	assert.Equal(t, "23:00", last.EndLocal)
	assert.Equal(t, at(2025, time.December, 3, 23, 0), last.End)

	for _, s := range slots {
		assert.Equal(t, StatusAvailable, s.Status)
		assert.False(t, s.End.After(at(2025, time.December, 3, 23, 0)))
	}
}

func TestGenerateDropsTrailingPartial(t *testing.T) {
	// 10:00-12:30 with 60 minute slots leaves a trailing half hour
	// that must be dropped rather than truncated.
	slots, err := Generate(day(2025, time.May, 1), "10:00", "12:30", 60, time.Time{})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "11:00", slots[1].StartLocal)
	assert.Equal(t, "12:00", slots[1].EndLocal)
}

func TestGeneratePastLabel(t *testing.T) {
	date := day(2025, time.December, 3)
	now := at(2025, time.December, 3, 11, 0)
	slots, err := Generate(date, "08:00", "23:00", 90, now)
	require.NoError(t, err)

	// 08:00-09:30 ended before now, 09:30-11:00 ends exactly at now:
	// both are PAST.  11:00-12:30 is still open.
	assert.Equal(t, StatusPast, slots[0].Status)
	assert.Equal(t, StatusPast, slots[1].Status)
	assert.Equal(t, StatusAvailable, slots[2].Status)
}

func TestGenerateDeterministic(t *testing.T) {
	date := day(2025, time.July, 9)
	now := at(2025, time.July, 9, 0, 0)
	a, err := Generate(date, "06:00", "22:00", 120, now)
	require.NoError(t, err)
	b, err := Generate(date, "06:00", "22:00", 120, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateRejectsBadInputs(t *testing.T) {
	date := day(2025, time.May, 1)
	_, err := Generate(date, "08:00", "23:00", 0, time.Time{})
	assert.Error(t, err)
	_, err = Generate(date, "23:00", "08:00", 90, time.Time{})
	assert.Error(t, err)
	_, err = Generate(date, "25:00", "26:00", 90, time.Time{})
	assert.Error(t, err)
	_, err = Generate(date, "0800", "23:00", 90, time.Time{})
	assert.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	s1 := at(2025, time.May, 1, 10, 0)
	e1 := at(2025, time.May, 1, 11, 30)

	cases := []struct {
		name   string
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{"touching after does not conflict", e1, at(2025, time.May, 1, 13, 0), false},
		{"touching before does not conflict", at(2025, time.May, 1, 8, 30), s1, false},
		{"partial overlap conflicts", at(2025, time.May, 1, 10, 30), at(2025, time.May, 1, 12, 0), true},
		{"contained conflicts", at(2025, time.May, 1, 10, 15), at(2025, time.May, 1, 11, 0), true},
		{"containing conflicts", at(2025, time.May, 1, 9, 0), at(2025, time.May, 1, 12, 0), true},
		{"identical conflicts", s1, e1, true},
		{"disjoint after", at(2025, time.May, 1, 12, 0), at(2025, time.May, 1, 13, 0), false},
		{"disjoint before", at(2025, time.May, 1, 8, 0), at(2025, time.May, 1, 9, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(s1, e1, tc.bStart, tc.bEnd))
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, s1, e1), "overlap must be symmetric")
		})
	}
}

func TestAnnotate(t *testing.T) {
	date := day(2025, time.December, 3)
	slots, err := Generate(date, "08:00", "23:00", 90, at(2025, time.December, 2, 0, 0))
	require.NoError(t, err)

	// A booking 10:00-11:30 covers exactly the 09:30-11:00 and
	// 11:00-12:30 windows partially?  No: slots are 08:00, 09:30,
	// 11:00... the 09:30-11:00 slot overlaps [10:00,11:30) and so
	// does 11:00-12:30.  08:00-09:30 touches nothing.
	booked := []Interval{{Start: at(2025, time.December, 3, 10, 0), End: at(2025, time.December, 3, 11, 30)}}
	out := Annotate(slots, booked)

	assert.Equal(t, StatusAvailable, out[0].Status) // 08:00-09:30
	assert.Equal(t, StatusBooked, out[1].Status)    // 09:30-11:00
	assert.Equal(t, StatusBooked, out[2].Status)    // 11:00-12:30
	assert.Equal(t, StatusAvailable, out[3].Status) // 12:30-14:00
}
