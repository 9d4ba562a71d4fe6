package service

import (
	"context"

	"MandiPulse/internal/domain/models"
)

// TrendClassifier derives direction and strength from a price series.
// Neither method requires points to be sorted by date.
type TrendClassifier interface {
	Simple(points []models.PricePoint) models.TrendResult
	Segmented(points []models.PricePoint) models.TrendResult
}

// StabilityClassifier buckets price volatility.
type StabilityClassifier interface {
	Classify(points []models.PricePoint) models.StabilityResult
}

// Forecaster returns a short-horizon forecast, or nil when the series is too short.
type Forecaster interface {
	Forecast(ctx context.Context, records []models.PriceRecord, fp models.Fingerprint) (*models.Forecast, error)
}

// LiveFeed fetches current prices from external sources.
type LiveFeed interface {
	FetchLive(ctx context.Context, commodity string) models.LiveResult
	// Sources names the configured sources in priority order.
	Sources() []string
}

// CommodityCatalog lists the commodities known to an external source.
type CommodityCatalog interface {
	Commodities(ctx context.Context) ([]models.Commodity, error)
}

// SeriesBuilder produces chart series over the loaded dataset.
type SeriesBuilder interface {
	BuildChart(q models.Query, windowDays int) models.ChartResult
	LatestRecords(q models.Query) []models.PriceRecord
	RankSeason(season models.Season, n int) []models.SeasonalPick
}
