package analytics

import (
	"math"
	"testing"
	"time"

	"MandiPulse/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(n int, price func(i int) float64) []models.PricePoint {
	out := make([]models.PricePoint, n)
	for i := range out {
		out[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Price: price(i)}
	}
	return out
}

// ramp rises linearly from 2000 to 2500 with +/-10 alternating noise.
func ramp(n int) []models.PricePoint {
	return series(n, func(i int) float64 {
		noise := 10.0
		if i%2 == 1 {
			noise = -10
		}
		return 2000 + 500*float64(i)/float64(n-1) + noise
	})
}

func TestSegmentedTrendOnRamp(t *testing.T) {
	got := NewTrendClassifier().Segmented(ramp(90))
	if got.Direction != models.Increasing {
		t.Fatalf("expected increasing, got %s", got.Direction)
	}
	if got.Strength <= 15 {
		t.Fatalf("expected strength > 15, got %v", got.Strength)
	}
	if got.Confidence <= 0.7 || got.Confidence > 0.95 {
		t.Fatalf("expected confidence in (0.7, 0.95], got %v", got.Confidence)
	}
	if got.LateAvg <= got.EarlyAvg || got.ChangePct <= 0 {
		t.Fatalf("late third should exceed early third: %+v", got)
	}
	if got.Points != 90 {
		t.Fatalf("points = %d", got.Points)
	}
}

func TestSegmentedTrendDecreasing(t *testing.T) {
	pts := series(60, func(i int) float64 { return 3000 - 10*float64(i) })
	got := NewTrendClassifier().Segmented(pts)
	if got.Direction != models.Decreasing {
		t.Fatalf("expected decreasing, got %+v", got)
	}
	if got.ChangePct >= 0 {
		t.Fatalf("expected negative change, got %v", got.ChangePct)
	}
}

func TestSegmentedStrengthClamped(t *testing.T) {
	pts := series(40, func(i int) float64 { return 100 * math.Pow(1.2, float64(i)) })
	got := NewTrendClassifier().Segmented(pts)
	if got.Strength != 100 {
		t.Fatalf("expected strength clamped to 100, got %v", got.Strength)
	}
}

func TestSimpleTrend(t *testing.T) {
	c := NewTrendClassifier()
	if got := c.Simple(ramp(30)); got.Direction != models.Increasing {
		t.Fatalf("expected increasing, got %+v", got)
	}
	flat := series(30, func(int) float64 { return 1800 })
	if got := c.Simple(flat); got.Direction != models.Stable {
		t.Fatalf("expected stable for flat series, got %+v", got)
	}
	down := series(30, func(i int) float64 { return 2000 - 5*float64(i) })
	if got := c.Simple(down); got.Direction != models.Decreasing {
		t.Fatalf("expected decreasing, got %+v", got)
	}
}

func TestBelowMinimumIsStable(t *testing.T) {
	c := NewTrendClassifier()
	s := NewStabilityClassifier(DefaultStabilityMinPoints)
	wild := series(9, func(i int) float64 { return float64(1 + i*i*1000) })
	if got := c.Simple(wild); got.Direction != models.Stable {
		t.Fatalf("simple: expected stable below 10 points, got %s", got.Direction)
	}
	if got := s.Classify(wild); got.Category != models.StabilityStable {
		t.Fatalf("stability: expected stable below 10 points, got %s", got.Category)
	}
	seg := c.Segmented(series(19, func(i int) float64 { return float64(100 + i*100) }))
	if seg.Direction != models.Stable || seg.Strength != 0 || seg.Confidence != 0 {
		t.Fatalf("segmented: expected stable/0/0 below 20 points, got %+v", seg)
	}
}

func TestDegenerateSeries(t *testing.T) {
	c := NewTrendClassifier()
	sameDay := make([]models.PricePoint, 25)
	for i := range sameDay {
		sameDay[i] = models.PricePoint{Date: day0, Price: float64(1000 + i*50)}
	}
	if got := c.Segmented(sameDay); got.Direction != models.Stable {
		t.Fatalf("single-date series must be stable, got %+v", got)
	}
	zero := series(25, func(int) float64 { return 0 })
	if got := c.Simple(zero); got.Direction != models.Stable {
		t.Fatalf("zero-mean series must be stable, got %+v", got)
	}
	if got := NewStabilityClassifier(0).Classify(zero); got.Category != models.StabilityStable {
		t.Fatalf("zero-mean stability must be stable, got %+v", got)
	}
}

func TestStabilityBands(t *testing.T) {
	s := NewStabilityClassifier(DefaultStabilityMinPoints)

	calm := series(90, func(i int) float64 {
		if i%2 == 0 {
			return 2010
		}
		return 1990
	})
	if got := s.Classify(calm); got.Category != models.StabilityStable || got.CV >= 0.05 {
		t.Fatalf("expected stable, got %+v", got)
	}

	// A 2000->2500 ramp spreads ~145 around a 2250 mean, CV ~0.065.
	got := s.Classify(ramp(90))
	if got.Category != models.StabilityModerate {
		t.Fatalf("expected moderate for ramp, got %+v", got)
	}
	if math.Abs(got.CV-0.065) > 0.002 {
		t.Fatalf("unexpected ramp CV %v", got.CV)
	}

	swings := series(30, func(i int) float64 {
		if i%2 == 0 {
			return 1000
		}
		return 2000
	})
	if got := s.Classify(swings); got.Category != models.StabilityVolatile {
		t.Fatalf("expected volatile, got %+v", got)
	}
}

func TestTrendMinPointsOption(t *testing.T) {
	short := series(6, func(i int) float64 { return 1000 + 50*float64(i) })
	if got := NewTrendClassifier().Simple(short); got.Direction != models.Stable {
		t.Fatalf("six points are below the default minimum, got %+v", got)
	}
	c := NewTrendClassifier(WithTrendMinPoints(5, 6))
	if got := c.Simple(short); got.Direction != models.Increasing {
		t.Fatalf("expected increasing with lowered minimum, got %+v", got)
	}
	if got := c.Segmented(short); got.Direction != models.Increasing || got.Confidence == 0 {
		t.Fatalf("expected segmented trend with lowered minimum, got %+v", got)
	}
}

func TestSegmentedIgnoresInputOrder(t *testing.T) {
	pts := ramp(90)
	want := NewTrendClassifier().Segmented(pts)

	reversed := make([]models.PricePoint, len(pts))
	for i, p := range pts {
		reversed[len(pts)-1-i] = p
	}
	got := NewTrendClassifier().Segmented(reversed)
	if got != want {
		t.Fatalf("reversed input changed the result:\n got  %+v\n want %+v", got, want)
	}
	if !reversed[0].Date.Equal(pts[89].Date) {
		t.Fatalf("caller's slice must not be reordered")
	}
	if simple := NewTrendClassifier().Simple(reversed); simple.Direction != models.Increasing {
		t.Fatalf("simple trend on reversed input, got %+v", simple)
	}
}
