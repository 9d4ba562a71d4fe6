package models

import (
	"sort"
	"strings"
	"time"
)

// PriceRecord is one observed transaction-day price at a mandi.
// Text fields are trimmed and lowercased; PriceDate is midnight UTC.
type PriceRecord struct {
	Commodity  string    `json:"commodity"`
	State      string    `json:"state"`
	District   string    `json:"district"`
	Market     string    `json:"market"`
	PriceDate  time.Time `json:"date"`
	ModalPrice float64   `json:"modal_price"`
	MinPrice   float64   `json:"min_price"`
	MaxPrice   float64   `json:"max_price"`
}

// PricePoint is a (date, price) pair fed to the classifiers.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// Fingerprint identifies one forecast cache slot.
type Fingerprint struct {
	Commodity string
	State     string
	District  string
	Market    string
}

// NewFingerprint normalizes each component the same way stored records are normalized.
func NewFingerprint(commodity, state, district, market string) Fingerprint {
	n := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return Fingerprint{Commodity: n(commodity), State: n(state), District: n(district), Market: n(market)}
}

// Key renders the fingerprint as commodity|state|district|market.
func (f Fingerprint) Key() string {
	return f.Commodity + "|" + f.State + "|" + f.District + "|" + f.Market
}

// Points converts records to price points sorted by date. The input is not modified.
func Points(records []PriceRecord) []PricePoint {
	out := make([]PricePoint, len(records))
	for i, r := range records {
		out[i] = PricePoint{Date: r.PriceDate, Price: r.ModalPrice}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SortByDate returns a copy of records ordered by PriceDate ascending.
func SortByDate(records []PriceRecord) []PriceRecord {
	out := make([]PriceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PriceDate.Before(out[j].PriceDate) })
	return out
}

// LatestDate returns the maximum PriceDate, or the zero time for an empty slice.
func LatestDate(records []PriceRecord) time.Time {
	var latest time.Time
	for _, r := range records {
		if r.PriceDate.After(latest) {
			latest = r.PriceDate
		}
	}
	return latest
}
