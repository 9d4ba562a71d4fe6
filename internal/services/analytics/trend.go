package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"MandiPulse/internal/domain/models"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/pkg/util"
)

const (
	DefaultSimpleMinPoints    = 10
	DefaultSegmentedMinPoints = 20
	DefaultSimpleThreshold    = 0.0005 // slope / mean, per day
	DefaultSegmentedThreshold = 0.15   // slope as % of mean, per day

	confidenceBase = 0.5
	confidenceSpan = 0.45
	confidenceCap  = 0.95
	confidenceFull = 90.0 // points at which confidence saturates
)

// TrendClassifier labels a price series increasing, decreasing or stable.
type TrendClassifier struct {
	simpleMin    int
	segmentedMin int
	simpleThr    float64
	segmentedThr float64
}

var _ domsvc.TrendClassifier = (*TrendClassifier)(nil)

type TrendOption func(*TrendClassifier)

// WithTrendMinPoints overrides the minimum series length for each variant.
func WithTrendMinPoints(simple, segmented int) TrendOption {
	return func(c *TrendClassifier) {
		c.simpleMin = simple
		c.segmentedMin = segmented
	}
}

func NewTrendClassifier(opts ...TrendOption) *TrendClassifier {
	c := &TrendClassifier{
		simpleMin:    DefaultSimpleMinPoints,
		segmentedMin: DefaultSegmentedMinPoints,
		simpleThr:    DefaultSimpleThreshold,
		segmentedThr: DefaultSegmentedThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Simple classifies on the least-squares slope divided by the mean price.
// Only Direction, SlopePct and Points are populated.
func (c *TrendClassifier) Simple(points []models.PricePoint) models.TrendResult {
	res := models.TrendResult{Direction: models.Stable, Points: len(points)}
	if len(points) < c.simpleMin {
		return res
	}
	slope, mean, ok := regress(points)
	if !ok {
		return res
	}
	rel := slope / mean
	res.SlopePct = util.Round2(rel * 100)
	switch {
	case rel > c.simpleThr:
		res.Direction = models.Increasing
	case rel < -c.simpleThr:
		res.Direction = models.Decreasing
	}
	return res
}

// Segmented compares the early and late thirds of the series and classifies on the
// regression slope expressed as a percentage of the mean price per day.
// Points may arrive in any order.
func (c *TrendClassifier) Segmented(points []models.PricePoint) models.TrendResult {
	res := models.TrendResult{Direction: models.Stable, Points: len(points)}
	n := len(points)
	if n < c.segmentedMin {
		return res
	}
	points = byDate(points)

	third := n / 3
	early := meanPrice(points[:third])
	late := meanPrice(points[n-third:])
	res.EarlyAvg = util.Round2(early)
	res.LateAvg = util.Round2(late)
	if early > 0 {
		res.ChangePct = util.Round2((late - early) / early * 100)
	}

	slope, mean, ok := regress(points)
	if !ok {
		return res
	}
	slopePct := slope / mean * 100
	span := float64(util.DaysBetween(points[0].Date, points[n-1].Date))

	res.SlopePct = util.Round2(slopePct)
	res.Strength = util.Round2(clamp(math.Abs(slopePct)*span, 0, 100))
	res.Confidence = util.Round2(math.Min(confidenceCap, confidenceBase+(float64(n)/confidenceFull)*confidenceSpan))
	switch {
	case slopePct > c.segmentedThr:
		res.Direction = models.Increasing
	case slopePct < -c.segmentedThr:
		res.Direction = models.Decreasing
	}
	return res
}

// regress fits price against day offset. ok is false when the mean price is not
// positive or every point falls on one date.
func regress(points []models.PricePoint) (slope, mean float64, ok bool) {
	x := make([]float64, len(points))
	y := make([]float64, len(points))
	origin := points[0].Date
	distinct := false
	for i, p := range points {
		x[i] = float64(util.DaysBetween(origin, p.Date))
		y[i] = p.Price
		if x[i] != x[0] {
			distinct = true
		}
	}
	mean = stat.Mean(y, nil)
	if mean <= 0 || !distinct {
		return 0, mean, false
	}
	_, slope = stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, mean, false
	}
	return slope, mean, true
}

// byDate returns points ordered by date, copying only when they are not.
func byDate(points []models.PricePoint) []models.PricePoint {
	less := func(s []models.PricePoint) func(i, j int) bool {
		return func(i, j int) bool { return s[i].Date.Before(s[j].Date) }
	}
	if sort.SliceIsSorted(points, less(points)) {
		return points
	}
	out := make([]models.PricePoint, len(points))
	copy(out, points)
	sort.SliceStable(out, less(out))
	return out
}

func meanPrice(points []models.PricePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Price
	}
	return sum / float64(len(points))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
