package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/internal/services/series"
	"MandiPulse/pkg/logger"
	"MandiPulse/pkg/util"
)

const (
	recentWindowDays   = 30
	analysisWindowDays = 90
)

// MarketInsightsUseCase combines trend, stability and forecast for one query.
type MarketInsightsUseCase struct {
	store      domrepo.PriceReader
	trend      domsvc.TrendClassifier
	stability  domsvc.StabilityClassifier
	forecaster domsvc.Forecaster
	timeout    time.Duration
	l          *logger.Logger
}

func NewMarketInsightsUseCase(store domrepo.PriceReader, trend domsvc.TrendClassifier, stability domsvc.StabilityClassifier, forecaster domsvc.Forecaster, l *logger.Logger) *MarketInsightsUseCase {
	return &MarketInsightsUseCase{
		store:      store,
		trend:      trend,
		stability:  stability,
		forecaster: forecaster,
		timeout:    60 * time.Second,
		l:          l,
	}
}

type InsightParams struct {
	Crop     string
	State    string
	District string
	Market   string
	Season   string
}

func (p InsightParams) query() models.Query {
	return models.Query{Commodity: p.Crop, State: p.State, District: p.District, Market: p.Market, Season: p.Season}
}

// GetInsights falls back to the unfiltered series when the season filter leaves
// nothing. Trend and stability look at the last 90 days; the forecast uses the
// whole series.
func (uc *MarketInsightsUseCase) GetInsights(ctx context.Context, p InsightParams) (*models.InsightResult, error) {
	crop := strings.TrimSpace(p.Crop)
	if crop == "" {
		return nil, ErrCommodityRequired
	}
	q := p.query()
	records, seasonApplied := uc.store.FilterSeason(q)
	if len(records) == 0 {
		records = uc.store.Filter(q)
	}
	if len(records) == 0 {
		return &models.InsightResult{
			HasData:        false,
			Commodity:      crop,
			Recommendation: fmt.Sprintf("No price records found for %s in current market dataset.", crop),
		}, nil
	}

	records = models.SortByDate(records)
	latest := records[len(records)-1]
	recent := since(records, latest.PriceDate, recentWindowDays)
	window := since(records, latest.PriceDate, analysisWindowDays)
	avg30 := meanModal(recent)
	avg90 := meanModal(window)
	change := 0.0
	if avg90 != 0 {
		change = (avg30 - avg90) / avg90 * 100
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	var (
		simple, segmented models.TrendResult
		stab              models.StabilityResult
		forecast          *models.Forecast
		forecastErr       error
	)
	points := models.Points(window)
	var g errgroup.Group
	g.Go(func() error {
		simple = uc.trend.Simple(points)
		segmented = uc.trend.Segmented(points)
		return nil
	})
	g.Go(func() error {
		stab = uc.stability.Classify(points)
		return nil
	})
	g.Go(func() error {
		forecast, forecastErr = uc.forecaster.Forecast(ctx, records, q.Fingerprint())
		return nil
	})
	_ = g.Wait()

	res := &models.InsightResult{
		HasData:      true,
		Commodity:    crop,
		Trend:        simple.Direction,
		TrendDetails: &segmented,
		Stability:    stab.Category,
		DemandTrend:  demandFor(simple.Direction),
		MarketRisk:   riskFor(stab.Category),
		LatestPrice: &models.PriceAt{
			Value: util.Round2(latest.ModalPrice),
			Unit:  series.PriceUnit,
			Date:  util.FormatDate(latest.PriceDate),
		},
		RecentAverage:    &models.PriceAt{Value: util.Round2(avg30), Unit: series.PriceUnit, Days: recentWindowDays},
		Average90:        &models.PriceAt{Value: util.Round2(avg90), Unit: series.PriceUnit, Days: analysisWindowDays},
		PriceChange90Pct: util.Round2(change),
		Forecast:         forecast,
		Coverage: &models.Coverage{
			Records:             len(records),
			From:                util.FormatDate(records[0].PriceDate),
			To:                  util.FormatDate(latest.PriceDate),
			SeasonFilterApplied: seasonApplied,
		},
	}
	if forecastErr != nil {
		res.Forecast = nil
		res.Errors = map[string]string{"forecast": forecastErr.Error()}
		if uc.l != nil {
			uc.l.Error("forecast failed", logger.String("crop", crop), logger.Error(forecastErr))
		}
	}
	res.Recommendation = recommendation(crop, simple.Direction, res.Forecast)
	return res, nil
}

// since keeps records dated on or after latest minus days. records must be sorted.
func since(records []models.PriceRecord, latest time.Time, days int) []models.PriceRecord {
	cutoff := latest.AddDate(0, 0, -days)
	for i, r := range records {
		if !r.PriceDate.Before(cutoff) {
			return records[i:]
		}
	}
	return nil
}

func meanModal(records []models.PriceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.ModalPrice
	}
	return sum / float64(len(records))
}

func demandFor(d models.Direction) string {
	switch d {
	case models.Increasing:
		return "high"
	case models.Decreasing:
		return "low"
	default:
		return "moderate"
	}
}

func riskFor(c models.StabilityCategory) string {
	switch c {
	case models.StabilityVolatile:
		return "high"
	case models.StabilityModerate:
		return "medium"
	default:
		return "low"
	}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s)))
}

func recommendation(crop string, d models.Direction, f *models.Forecast) string {
	text := fmt.Sprintf("%s prices are %s.", titleCase(crop), d)
	if f != nil {
		text += fmt.Sprintf(" 30-day expected average is about %.1f.", f.Average)
	}
	return text
}
