package markethours

import (
	"fmt"
	"time"
)

// Inclusive years covered by the nseHolidays table. Dates outside this
// window degrade to weekday-only checks; CoversYear lets callers detect
// and surface that.
const (
	FirstHolidayYear = 2025
	LastHolidayYear  = 2026
)

// NSE trading holidays (cash segment), covering FirstHolidayYear through
// LastHolidayYear. The table must be extended each year.
// Source: NSE India official holiday list; tentative dates follow the
// published calendar and are corrected when the exchange amends it.
var nseHolidays = []struct {
	year  int
	month time.Month
	day   int
}{
	// 2025
	{2025, time.February, 26}, // Mahashivratri
	{2025, time.March, 14},    // Holi
	{2025, time.March, 31},    // Id-ul-Fitr
	{2025, time.April, 10},    // Mahavir Jayanti
	{2025, time.April, 14},    // Dr. Ambedkar Jayanti
	{2025, time.April, 18},    // Good Friday
	{2025, time.May, 1},       // Maharashtra Day
	{2025, time.August, 15},   // Independence Day
	{2025, time.August, 27},   // Ganesh Chaturthi
	{2025, time.October, 2},   // Mahatma Gandhi Jayanti / Dussehra
	{2025, time.October, 21},  // Diwali Laxmi Pujan
	{2025, time.October, 22},  // Diwali Balipratipada
	{2025, time.November, 5},  // Guru Nanak Jayanti
	{2025, time.December, 25}, // Christmas

	// 2026
	{2026, time.January, 26},  // Republic Day
	{2026, time.February, 17}, // Mahashivratri (tentative)
	{2026, time.March, 14},    // Holi
	{2026, time.March, 31},    // Id-ul-Fitr (tentative)
	{2026, time.April, 2},     // Ram Navami (tentative)
	{2026, time.April, 6},     // Mahavir Jayanti
	{2026, time.April, 10},    // Good Friday
	{2026, time.April, 14},    // Dr. Ambedkar Jayanti
	{2026, time.May, 1},       // Maharashtra Day
	{2026, time.June, 7},      // Bakrid (tentative)
	{2026, time.July, 6},      // Muharram (tentative)
	{2026, time.August, 15},   // Independence Day
	{2026, time.August, 16},   // Janmashtami (tentative)
	{2026, time.September, 5}, // Milad-un-Nabi (tentative)
	{2026, time.October, 2},   // Mahatma Gandhi Jayanti
	{2026, time.October, 20},  // Dussehra
	{2026, time.November, 5},  // Diwali Laxmi Pujan (tentative)
	{2026, time.November, 6},  // Diwali Balipratipada (tentative)
	{2026, time.November, 19}, // Guru Nanak Jayanti
	{2026, time.December, 25}, // Christmas
}

// pre-compute for fast lookup
var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool, len(nseHolidays))
	for _, h := range nseHolidays {
		holidaySet[dateKey(h.year, h.month, h.day)] = true
	}
}

// IsHoliday returns true if the date (in IST) is an NSE trading holiday.
// For years outside the table's coverage window it always returns false.
func IsHoliday(t time.Time) bool {
	ist := t.In(IST)
	return holidaySet[dateKey(ist.Year(), ist.Month(), ist.Day())]
}

// CoversYear reports whether the holiday table covers the given year.
// Trading-day checks for uncovered years see weekends only.
func CoversYear(year int) bool {
	return year >= FirstHolidayYear && year <= LastHolidayYear
}

func dateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}
