package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"MandiPulse/internal/domain/models"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/internal/repository"
	"MandiPulse/internal/services/analytics"
	"MandiPulse/internal/services/forecast"
	"MandiPulse/internal/services/series"
)

func rampRecords(commodity string, start time.Time, n int, base, step float64) []models.PriceRecord {
	out := make([]models.PriceRecord, n)
	for i := range out {
		p := base + step*float64(i)
		out[i] = models.PriceRecord{
			Commodity: commodity, State: "maharashtra", District: "nashik", Market: "lasalgaon",
			PriceDate: start.AddDate(0, 0, i), ModalPrice: p, MinPrice: p - 50, MaxPrice: p + 50,
		}
	}
	return out
}

func newInsights(t *testing.T, store *repository.PriceStore, f domsvc.Forecaster) *MarketInsightsUseCase {
	t.Helper()
	if f == nil {
		eng, err := forecast.NewEngine(forecast.Config{Trees: 10, MaxDepth: 6, Seed: 42})
		if err != nil {
			t.Fatalf("engine: %v", err)
		}
		f = eng
	}
	return NewMarketInsightsUseCase(store, analytics.NewTrendClassifier(), analytics.NewStabilityClassifier(0), f, nil)
}

func TestInsightsForRisingSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := repository.NewPriceStore(rampRecords("onion", start, 120, 2000, 5))
	res, err := newInsights(t, store, nil).GetInsights(context.Background(), InsightParams{Crop: "Onion"})
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if !res.HasData || res.Trend != models.Increasing || res.DemandTrend != "high" {
		t.Fatalf("expected increasing trend, got %+v", res)
	}
	if res.TrendDetails == nil || res.TrendDetails.Direction != models.Increasing {
		t.Fatalf("segmented trend missing: %+v", res.TrendDetails)
	}
	if res.LatestPrice.Value != 2595 || res.LatestPrice.Date != "2024-04-29" {
		t.Fatalf("unexpected latest price %+v", res.LatestPrice)
	}
	if res.Forecast == nil || res.Forecast.Days != 30 || res.Forecast.Model != forecast.ModelName {
		t.Fatalf("expected forecast, got %+v", res.Forecast)
	}
	if res.PriceChange90Pct <= 0 {
		t.Fatalf("30-day average should exceed 90-day average, got %v", res.PriceChange90Pct)
	}
	if res.Coverage.Records != 120 || res.Coverage.From != "2024-01-01" || res.Coverage.SeasonFilterApplied {
		t.Fatalf("unexpected coverage %+v", res.Coverage)
	}
	if !strings.HasPrefix(res.Recommendation, "Onion prices are increasing. 30-day expected average is about ") {
		t.Fatalf("unexpected recommendation %q", res.Recommendation)
	}
}

func TestInsightsWithoutData(t *testing.T) {
	store := repository.NewPriceStore(rampRecords("onion", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5, 1000, 0))
	res, err := newInsights(t, store, nil).GetInsights(context.Background(), InsightParams{Crop: "saffron"})
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if res.HasData || res.Recommendation != "No price records found for saffron in current market dataset." {
		t.Fatalf("unexpected no-data result %+v", res)
	}
	if _, err := newInsights(t, store, nil).GetInsights(context.Background(), InsightParams{}); !errors.Is(err, ErrCommodityRequired) {
		t.Fatalf("expected ErrCommodityRequired, got %v", err)
	}
}

func TestInsightsSeasonFallsBackToAllRecords(t *testing.T) {
	store := repository.NewPriceStore(rampRecords("wheat", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 20, 2000, 0))
	res, err := newInsights(t, store, nil).GetInsights(context.Background(), InsightParams{Crop: "wheat", Season: "rainy"})
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if !res.HasData || res.Coverage.Records != 20 || !res.Coverage.SeasonFilterApplied {
		t.Fatalf("expected fallback to unfiltered records, got %+v", res.Coverage)
	}
	if res.Forecast != nil || res.Recommendation != "Wheat prices are stable." {
		t.Fatalf("short series must not forecast: %+v", res)
	}
	if res.MarketRisk != "low" || res.Stability != models.StabilityStable {
		t.Fatalf("flat series should be low risk: %+v", res)
	}
}

type failingForecaster struct{}

func (failingForecaster) Forecast(context.Context, []models.PriceRecord, models.Fingerprint) (*models.Forecast, error) {
	return nil, errors.New("model exploded")
}

func TestInsightsReportForecastErrors(t *testing.T) {
	store := repository.NewPriceStore(rampRecords("onion", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 40, 2000, 0))
	res, err := newInsights(t, store, failingForecaster{}).GetInsights(context.Background(), InsightParams{Crop: "onion"})
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if res.Forecast != nil || res.Errors["forecast"] != "model exploded" {
		t.Fatalf("forecast error not reported: %+v", res)
	}
	if res.Recommendation != "Onion prices are stable." {
		t.Fatalf("unexpected recommendation %q", res.Recommendation)
	}
}

type stubFeed struct {
	res   models.LiveResult
	calls int
}

func (s *stubFeed) FetchLive(context.Context, string) models.LiveResult {
	s.calls++
	return s.res
}

func (s *stubFeed) Sources() []string { return []string{"primary", "secondary"} }

func pricesFixture() *repository.PriceStore {
	d := func(day int) time.Time { return time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC) }
	return repository.NewPriceStore([]models.PriceRecord{
		{Commodity: "green chilli", Market: "azadpur", PriceDate: d(1), ModalPrice: 3000, MinPrice: 2800, MaxPrice: 3200},
		{Commodity: "green chilli", Market: "azadpur", PriceDate: d(3), ModalPrice: 3400, MinPrice: 3300, MaxPrice: 3500},
		{Commodity: "green chilli", Market: "okhla", PriceDate: d(3), ModalPrice: 3600, MinPrice: 3500, MaxPrice: 3700},
	})
}

func TestLiveUsesFeedWhenAvailable(t *testing.T) {
	feed := &stubFeed{res: models.LiveResult{
		Live:   true,
		Source: "data.gov.in",
		Records: []models.PriceRecord{
			{Commodity: "green chilli", Market: "azadpur", PriceDate: time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), ModalPrice: 4000},
			{Commodity: "green chilli", Market: "okhla", PriceDate: time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), ModalPrice: 5000},
		},
	}}
	uc := NewMarketPricesUseCase(series.NewAggregator(pricesFixture()), feed, nil, nil)
	res, err := uc.Live(context.Background(), LiveParams{Commodity: "green chilli"})
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if !res.Live || res.Today == nil || res.Today.Value != 4500 || res.Today.Date != "2024-07-09" {
		t.Fatalf("unexpected live result %+v", res)
	}
}

func TestLiveFallsBackToDataset(t *testing.T) {
	feed := &stubFeed{res: models.LiveResult{Live: false, ErrorCode: "no_api_key", Message: "Live price API key is not configured."}}
	uc := NewMarketPricesUseCase(series.NewAggregator(pricesFixture()), feed, nil, nil)

	res, err := uc.Live(context.Background(), LiveParams{Commodity: "Green Chilli"})
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if res.Live || res.Source != LocalSourceTag || res.ErrorCode != "no_api_key" || len(res.Records) != 2 {
		t.Fatalf("unexpected fallback %+v", res)
	}
	if res.Today == nil || res.Today.Value != 3500 || res.Today.Date != "2024-07-03" {
		t.Fatalf("unexpected today price %+v", res.Today)
	}

	if _, err := uc.Live(context.Background(), LiveParams{Commodity: "green chilli", Source: LiveSourceLocal}); err != nil {
		t.Fatalf("live local: %v", err)
	}
	if feed.calls != 1 {
		t.Fatalf("local source must skip the feed, calls=%d", feed.calls)
	}

	empty, _ := uc.Live(context.Background(), LiveParams{Commodity: "saffron", Source: LiveSourceLocal})
	if len(empty.Records) != 0 || empty.Today != nil || empty.Message == "" {
		t.Fatalf("unexpected empty fallback %+v", empty)
	}
}

func TestSeasonalAndHistory(t *testing.T) {
	uc := NewMarketPricesUseCase(series.NewAggregator(pricesFixture()), nil, nil, nil)
	if _, err := uc.Seasonal(context.Background(), "monsoon"); !errors.Is(err, ErrUnknownSeason) {
		t.Fatalf("expected ErrUnknownSeason, got %v", err)
	}
	picks, err := uc.Seasonal(context.Background(), "Rainy")
	if err != nil || len(picks) != 1 || picks[0].Commodity != "Green Chilli" || picks[0].Records != 3 {
		t.Fatalf("unexpected picks %+v %v", picks, err)
	}

	chart, err := uc.History(context.Background(), HistoryParams{Commodity: "green chilli", Days: 5})
	if err != nil || len(chart.TimeSeries) != 5 || len(chart.ByMarket) != 2 {
		t.Fatalf("unexpected chart %+v %v", chart, err)
	}
	if _, err := uc.Commodities(context.Background()); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestLiveSources(t *testing.T) {
	uc := NewMarketPricesUseCase(series.NewAggregator(pricesFixture()), &stubFeed{}, nil, nil)
	if got := uc.LiveSources(); len(got) != 2 || got[0] != "primary" {
		t.Fatalf("unexpected sources %v", got)
	}
	if got := NewMarketPricesUseCase(series.NewAggregator(pricesFixture()), nil, nil, nil).LiveSources(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty source list without a feed, got %v", got)
	}
}
