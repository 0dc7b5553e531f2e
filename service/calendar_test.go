package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amsterdam(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	return loc
}

func TestLocation(t *testing.T) {
	loc, err := Location("Europe/Amsterdam")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Amsterdam", loc.String())

	_, err = Location("Mars/Olympus_Mons")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestDateIn(t *testing.T) {
	loc := amsterdam(t)

	// 23:30 UTC on March 4 is already March 5 in Amsterdam
	utc := time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC)
	date := DateIn(utc, loc)
	assert.Equal(t, "2026-03-05", date.Format("2006-01-02"))
	assert.Equal(t, 0, date.Hour())
}

func TestDaysSince(t *testing.T) {
	loc := amsterdam(t)

	start := time.Date(2026, 3, 1, 16, 0, 0, 0, loc)

	assert.Equal(t, 0, DaysSince(start, start, loc))
	assert.Equal(t, 4, DaysSince(start, start.AddDate(0, 0, 4), loc))
	assert.Equal(t, 0, DaysSince(start, start.AddDate(0, 0, -2), loc), "never negative")

	// Crossing the spring DST jump must not lose a day
	dstStart := time.Date(2026, 3, 28, 16, 0, 0, 0, loc)
	dstEnd := time.Date(2026, 3, 30, 16, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysSince(dstStart, dstEnd, loc))
}

func TestIsNewDay(t *testing.T) {
	loc := amsterdam(t)

	last := time.Date(2026, 3, 5, 16, 0, 0, 0, loc)
	assert.False(t, IsNewDay(last, last.Add(3*time.Hour), loc))
	assert.True(t, IsNewDay(last, last.AddDate(0, 0, 1), loc))
	assert.False(t, IsNewDay(last, last.AddDate(0, 0, -1), loc))
}

func TestIsNewMonth(t *testing.T) {
	loc := amsterdam(t)

	feb := time.Date(2026, 2, 28, 16, 0, 0, 0, loc)
	mar := time.Date(2026, 3, 1, 16, 0, 0, 0, loc)
	assert.True(t, IsNewMonth(feb, mar, loc))
	assert.False(t, IsNewMonth(mar, mar.AddDate(0, 0, 10), loc))

	dec := time.Date(2025, 12, 31, 16, 0, 0, 0, loc)
	jan := time.Date(2026, 1, 1, 16, 0, 0, 0, loc)
	assert.True(t, IsNewMonth(dec, jan, loc), "year rollover")
}

func TestFirstOfMonth(t *testing.T) {
	loc := amsterdam(t)

	mid := time.Date(2026, 3, 17, 16, 0, 0, 0, loc)
	first := FirstOfMonth(mid, loc)
	assert.Equal(t, "2026-03-01", first.Format("2006-01-02"))
}
