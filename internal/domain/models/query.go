package models

import (
	"strings"
	"time"
)

// Query selects records by commodity and optional location and season.
// Empty location fields impose no constraint.
type Query struct {
	Commodity string
	State     string
	District  string
	Market    string
	Season    string
}

// Fingerprint derives the forecast cache slot for this query.
func (q Query) Fingerprint() Fingerprint {
	return NewFingerprint(q.Commodity, q.State, q.District, q.Market)
}

// Season names a set of calendar months. Spring overlaps summer and winter.
type Season string

const (
	SeasonSummer Season = "summer"
	SeasonRainy  Season = "rainy"
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
)

var seasonMonths = map[Season][]time.Month{
	SeasonSummer: {time.March, time.April, time.May, time.June},
	SeasonRainy:  {time.July, time.August, time.September, time.October},
	SeasonWinter: {time.November, time.December, time.January, time.February},
	SeasonSpring: {time.February, time.March, time.April},
}

// ParseSeason reports whether name is a known season.
func ParseSeason(name string) (Season, bool) {
	s := Season(strings.ToLower(strings.TrimSpace(name)))
	_, ok := seasonMonths[s]
	return s, ok
}

// Contains reports whether month m belongs to the season.
func (s Season) Contains(m time.Month) bool {
	for _, sm := range seasonMonths[s] {
		if sm == m {
			return true
		}
	}
	return false
}
