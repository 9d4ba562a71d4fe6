package util

import (
	"strings"
	"time"
)

// ordinalEpoch is the proleptic Gregorian ordinal of 1970-01-01 (0001-01-01 is day 1).
const ordinalEpoch = 719163

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses a calendar date in any of the layouts seen in mandi price feeds
// (ISO, dd/mm/yyyy, dd-mm-yyyy, ...). The result is truncated to UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ordinal returns the proleptic Gregorian ordinal of t's date.
func Ordinal(t time.Time) int64 {
	return Day(t).Unix()/86400 + ordinalEpoch
}

// DaysBetween returns the whole number of days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// FormatDate renders t as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
