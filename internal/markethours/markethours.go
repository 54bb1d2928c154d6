package markethours

import "time"

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// NSE cash-market session bounds in IST.
const (
	OpenHour    = 9
	OpenMinute  = 15
	CloseHour   = 15
	CloseMinute = 30
)

// SessionOpen returns the session open (09:15 IST) for the calendar day of t.
func SessionOpen(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), OpenHour, OpenMinute, 0, 0, IST)
}

// SessionClose returns the session close (15:30 IST) for the calendar day of t.
func SessionClose(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), CloseHour, CloseMinute, 0, 0, IST)
}

// InSession reports whether the bar timestamp falls within the active
// session [09:15, 15:30) of its own trading day.
func InSession(t time.Time) bool {
	ist := t.In(IST)
	hm := ist.Hour()*60 + ist.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday returns true if t is Mon-Fri in IST.
func IsWeekday(t time.Time) bool {
	wd := t.In(IST).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not an exchange holiday.
func IsTradingDay(t time.Time) bool {
	ist := t.In(IST)
	return IsWeekday(ist) && !IsHoliday(ist)
}

// NextTradingDay returns the first trading day strictly after t.
func NextTradingDay(t time.Time) time.Time {
	d := t.In(IST).AddDate(0, 0, 1)
	for i := 0; i < 10; i++ { // bounded scan over weekends + holiday clusters
		if IsTradingDay(d) {
			return Midnight(d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return Midnight(d)
}

// AddTradingDays returns the trading day n sessions after t.
func AddTradingDays(t time.Time, n int) time.Time {
	d := Midnight(t)
	for i := 0; i < n; i++ {
		d = NextTradingDay(d)
	}
	return d
}

// SessionDone reports whether the session for the given calendar day has
// concluded as of now: the day is strictly in the past, or is today with the
// clock past the close.
func SessionDone(day, now time.Time) bool {
	dayIST := Midnight(day)
	nowIST := now.In(IST)
	if Midnight(nowIST).After(dayIST) {
		return true
	}
	return Midnight(nowIST).Equal(dayIST) && nowIST.After(SessionClose(dayIST))
}

// Midnight truncates t to 00:00 IST of its calendar day.
func Midnight(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// SameDay reports whether a and b fall on the same IST calendar day.
func SameDay(a, b time.Time) bool {
	ai, bi := a.In(IST), b.In(IST)
	return ai.Year() == bi.Year() && ai.YearDay() == bi.YearDay()
}
