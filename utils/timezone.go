package utils

import (
	"time"
)

const civilDateLayout = "2006-01-02"

// loadZone resolves an IANA timezone name, degrading to UTC for unknown or
// empty zones rather than failing the request.
func loadZone(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DayRange maps a civil date string ("2006-01-02") in the given zone to the
// [start, end) instant range spanning that day. The offset is resolved at
// local midnight and end is exactly 24h after start. An unparsable date falls
// back to today in that zone.
func DayRange(date, tz string) (time.Time, time.Time) {
	loc := loadZone(tz)
	start, err := time.ParseInLocation(civilDateLayout, date, loc)
	if err != nil {
		now := time.Now().In(loc)
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}
	return start, start.Add(24 * time.Hour)
}

// DateInZone returns the civil date string the instant falls on in the zone.
// Inverse of DayRange: formatting a range start reproduces the input date.
func DateInZone(t time.Time, tz string) string {
	return t.In(loadZone(tz)).Format(civilDateLayout)
}

// Today returns the current civil date in the zone.
func Today(tz string) string {
	return DateInZone(time.Now(), tz)
}

// RecentDates returns the `days` civil date strings ending at (and including)
// end, oldest first.
func RecentDates(end, tz string, days int) []string {
	if days <= 0 {
		days = 7
	}
	start, _ := DayRange(end, tz)
	dates := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, start.AddDate(0, 0, -i).Format(civilDateLayout))
	}
	return dates
}
