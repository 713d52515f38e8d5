package utils

import (
	"testing"
	"time"
)

func TestDayRangeInverse(t *testing.T) {
	cases := []struct {
		date string
		tz   string
	}{
		{"2025-03-09", "America/New_York"}, // DST transition day
		{"2025-03-09", "Europe/Istanbul"},
		{"2025-11-02", "America/New_York"},
		{"2024-02-29", "Asia/Tokyo"},
		{"2025-01-01", "UTC"},
		{"2025-06-15", "Not/AZone"}, // degrades to UTC
		{"2025-06-15", ""},
	}

	for _, tc := range cases {
		start, end := DayRange(tc.date, tc.tz)

		if got := DateInZone(start, tc.tz); got != tc.date {
			t.Errorf("DateInZone(DayRange(%q, %q)) = %q, want %q", tc.date, tc.tz, got, tc.date)
		}
		if d := end.Sub(start); d != 24*time.Hour {
			t.Errorf("DayRange(%q, %q): end-start = %v, want 24h", tc.date, tc.tz, d)
		}
		if !end.After(start) {
			t.Errorf("DayRange(%q, %q): end not after start", tc.date, tc.tz)
		}
	}
}

func TestDayRangeUnknownZoneIsUTC(t *testing.T) {
	start, _ := DayRange("2025-06-15", "Not/AZone")
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestRecentDates(t *testing.T) {
	got := RecentDates("2025-03-10", "UTC", 7)
	want := []string{"2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07", "2025-03-08", "2025-03-09", "2025-03-10"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dates[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecentDatesDefaultsToSevenDays(t *testing.T) {
	if got := RecentDates("2025-03-10", "UTC", 0); len(got) != 7 {
		t.Errorf("len = %d, want 7", len(got))
	}
}
