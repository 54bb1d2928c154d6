package markethours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ist(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, IST)
}

func TestInSession(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"before open", ist(2026, time.January, 5, 9, 14), false},
		{"at open", ist(2026, time.January, 5, 9, 15), true},
		{"mid session", ist(2026, time.January, 5, 12, 0), true},
		{"last minute", ist(2026, time.January, 5, 15, 29), true},
		{"at close", ist(2026, time.January, 5, 15, 30), false},
		{"after close", ist(2026, time.January, 5, 16, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InSession(tt.ts))
		})
	}
}

func TestInSession_NormalizesUTC(t *testing.T) {
	// 04:30 UTC == 10:00 IST, inside the session.
	utc := time.Date(2026, time.January, 5, 4, 30, 0, 0, time.UTC)
	assert.True(t, InSession(utc))
	// 11:00 UTC == 16:30 IST, after the close.
	utc = time.Date(2026, time.January, 5, 11, 0, 0, 0, time.UTC)
	assert.False(t, InSession(utc))
}

func TestIsTradingDay(t *testing.T) {
	assert.True(t, IsTradingDay(ist(2026, time.January, 5, 10, 0)))   // Monday
	assert.False(t, IsTradingDay(ist(2026, time.January, 3, 10, 0)))  // Saturday
	assert.False(t, IsTradingDay(ist(2026, time.January, 4, 10, 0)))  // Sunday
	assert.False(t, IsTradingDay(ist(2026, time.January, 26, 10, 0))) // Republic Day
}

func TestNextTradingDay(t *testing.T) {
	// Friday -> Monday.
	next := NextTradingDay(ist(2026, time.January, 2, 10, 0))
	assert.Equal(t, Midnight(ist(2026, time.January, 5, 0, 0)), next)

	// Friday before Republic Day Monday -> Tuesday.
	next = NextTradingDay(ist(2026, time.January, 23, 10, 0))
	assert.Equal(t, Midnight(ist(2026, time.January, 27, 0, 0)), next)
}

func TestAddTradingDays(t *testing.T) {
	// Monday + 5 sessions = next Monday.
	got := AddTradingDays(ist(2026, time.January, 5, 0, 0), 5)
	assert.Equal(t, Midnight(ist(2026, time.January, 12, 0, 0)), got)
}

func TestSessionDone(t *testing.T) {
	day := ist(2026, time.January, 5, 0, 0)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"day in the past", ist(2026, time.January, 6, 9, 0), true},
		{"same day before close", ist(2026, time.January, 5, 15, 29), false},
		{"same day after close", ist(2026, time.January, 5, 15, 31), true},
		{"day in the future", ist(2026, time.January, 4, 18, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionDone(day, tt.now))
		})
	}
}

func TestCoversYear(t *testing.T) {
	assert.True(t, CoversYear(FirstHolidayYear))
	assert.True(t, CoversYear(LastHolidayYear))
	assert.False(t, CoversYear(FirstHolidayYear-1))
	assert.False(t, CoversYear(LastHolidayYear+1))

	// Outside the table's window holiday checks degrade to weekday-only:
	// Republic Day 2027 is a Tuesday but not in the table.
	assert.False(t, IsHoliday(ist(2027, time.January, 26, 10, 0)))
	assert.True(t, IsTradingDay(ist(2027, time.January, 26, 10, 0)))
}

func TestSessionBounds(t *testing.T) {
	day := ist(2026, time.March, 2, 13, 45)
	assert.Equal(t, ist(2026, time.March, 2, 9, 15), SessionOpen(day))
	assert.Equal(t, ist(2026, time.March, 2, 15, 30), SessionClose(day))
}
