package analytics

import (
	"gonum.org/v1/gonum/stat"

	"MandiPulse/internal/domain/models"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/pkg/util"
)

const (
	DefaultStabilityMinPoints = 10
	stableCV                  = 0.05
	moderateCV                = 0.15
)

// StabilityClassifier buckets a series by its coefficient of variation.
type StabilityClassifier struct {
	minPoints int
}

var _ domsvc.StabilityClassifier = (*StabilityClassifier)(nil)

func NewStabilityClassifier(minPoints int) *StabilityClassifier {
	if minPoints <= 1 {
		minPoints = DefaultStabilityMinPoints
	}
	return &StabilityClassifier{minPoints: minPoints}
}

func (c *StabilityClassifier) Classify(points []models.PricePoint) models.StabilityResult {
	res := models.StabilityResult{Category: models.StabilityStable, Points: len(points)}
	if len(points) < c.minPoints {
		return res
	}
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	mean, std := stat.MeanStdDev(prices, nil)
	if mean <= 0 {
		return res
	}
	cv := std / mean
	res.CV = util.Round(cv, 4)
	switch {
	case cv < stableCV:
		res.Category = models.StabilityStable
	case cv < moderateCV:
		res.Category = models.StabilityModerate
	default:
		res.Category = models.StabilityVolatile
	}
	return res
}
