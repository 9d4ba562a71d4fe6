package series

import (
	"fmt"
	"testing"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/repository"
)

func day(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

func rec(commodity, market string, date time.Time, modal float64) models.PriceRecord {
	return models.PriceRecord{
		Commodity: commodity, State: "maharashtra", District: "nashik", Market: market,
		PriceDate: date, ModalPrice: modal, MinPrice: modal - 100, MaxPrice: modal + 100,
	}
}

func TestBuildChartFillsGaps(t *testing.T) {
	store := repository.NewPriceStore([]models.PriceRecord{
		rec("onion", "lasalgaon", day(3, 2), 1000),
		rec("onion", "lasalgaon", day(3, 6), 2000),
		rec("onion", "pimpalgaon", day(3, 6), 2200),
		rec("onion", "lasalgaon", day(3, 10), 3000),
	})
	chart := NewAggregator(store).BuildChart(models.Query{Commodity: "Onion"}, 10)

	if len(chart.TimeSeries) != 10 {
		t.Fatalf("expected 10 points, got %d", len(chart.TimeSeries))
	}
	if chart.LatestDate != "2024-03-10" || chart.TimeSeries[9].Date != "2024-03-10" || chart.TimeSeries[0].Date != "2024-03-01" {
		t.Fatalf("window should end at latest date: %+v", chart.TimeSeries)
	}
	want := []float64{1000, 1000, 1000, 1000, 2100, 2100, 2100, 2100, 3000, 3000}
	for i, w := range want {
		if chart.TimeSeries[i].ModalPrice != w {
			t.Fatalf("day %s: modal %v, want %v", chart.TimeSeries[i].Date, chart.TimeSeries[i].ModalPrice, w)
		}
	}
	mar6 := chart.TimeSeries[5]
	if mar6.MinPrice != 1900 || mar6.MaxPrice != 2300 {
		t.Fatalf("daily min/max should span markets: %+v", mar6)
	}
}

func TestBuildChartTiePrefersEarlierDay(t *testing.T) {
	store := repository.NewPriceStore([]models.PriceRecord{
		rec("wheat", "indore", day(5, 1), 100),
		rec("wheat", "indore", day(5, 3), 300),
	})
	chart := NewAggregator(store).BuildChart(models.Query{Commodity: "wheat"}, 3)
	if len(chart.TimeSeries) != 3 || chart.TimeSeries[1].ModalPrice != 100 {
		t.Fatalf("middle day should copy the earlier neighbour: %+v", chart.TimeSeries)
	}
}

func TestBuildChartDropsDaysOutsideWindow(t *testing.T) {
	var recs []models.PriceRecord
	for i := 0; i < 40; i++ {
		recs = append(recs, rec("rice", "karnal", day(1, 1).AddDate(0, 0, i), float64(1000+i)))
	}
	chart := NewAggregator(repository.NewPriceStore(recs)).BuildChart(models.Query{Commodity: "rice"}, 0)
	if len(chart.TimeSeries) != DefaultWindowDays {
		t.Fatalf("expected %d points, got %d", DefaultWindowDays, len(chart.TimeSeries))
	}
	if chart.TimeSeries[0].ModalPrice != 1010 {
		t.Fatalf("window should start 29 days before latest, got %+v", chart.TimeSeries[0])
	}
}

func TestBuildChartMarketsSortedAndCapped(t *testing.T) {
	var recs []models.PriceRecord
	for i := 0; i < 20; i++ {
		m := fmt.Sprintf("mandi-%02d", i)
		recs = append(recs, rec("tomato", m, day(6, 1), 500))
		recs = append(recs, rec("tomato", m, day(6, 2), float64(1000+i*10)))
	}
	chart := NewAggregator(repository.NewPriceStore(recs)).BuildChart(models.Query{Commodity: "tomato"}, 7)
	if len(chart.ByMarket) != DefaultMaxMarkets {
		t.Fatalf("expected %d markets, got %d", DefaultMaxMarkets, len(chart.ByMarket))
	}
	if chart.ByMarket[0].Market != "mandi-19" || chart.ByMarket[0].ModalPrice != 1190 {
		t.Fatalf("highest latest-day price first, got %+v", chart.ByMarket[0])
	}
	for i := 1; i < len(chart.ByMarket); i++ {
		if chart.ByMarket[i].ModalPrice > chart.ByMarket[i-1].ModalPrice {
			t.Fatalf("markets not sorted descending at %d", i)
		}
	}
}

func TestBuildChartUnknownCommodity(t *testing.T) {
	store := repository.NewPriceStore([]models.PriceRecord{rec("onion", "lasalgaon", day(3, 2), 1000)})
	chart := NewAggregator(store).BuildChart(models.Query{Commodity: "saffron"}, 10)
	if len(chart.TimeSeries) != 0 || len(chart.ByMarket) != 0 || chart.LatestDate != "" {
		t.Fatalf("expected empty chart, got %+v", chart)
	}
}

func TestLatestRecordsAndTodayPrice(t *testing.T) {
	store := repository.NewPriceStore([]models.PriceRecord{
		rec("onion", "lasalgaon", day(3, 1), 1500),
		rec("onion", "lasalgaon", day(3, 4), 2000),
		rec("onion", "pimpalgaon", day(3, 3), 2500),
	})
	latest := NewAggregator(store).LatestRecords(models.Query{Commodity: "onion"})
	if len(latest) != 2 || latest[0].Market != "pimpalgaon" || latest[1].ModalPrice != 2000 {
		t.Fatalf("unexpected latest records %+v", latest)
	}

	today := TodayPrice(latest)
	if today == nil || today.Value != 2000 || today.Date != "2024-03-04" || today.Unit != PriceUnit {
		t.Fatalf("unexpected today price %+v", today)
	}
	if TodayPrice(nil) != nil {
		t.Fatalf("expected nil for no records")
	}
}

func TestRankSeason(t *testing.T) {
	var recs []models.PriceRecord
	add := func(commodity string, n int, price float64, m time.Month) {
		for i := 0; i < n; i++ {
			recs = append(recs, rec(commodity, "any", day(m, i+1), price))
		}
	}
	add("onion", 3, 1000, time.July)
	add("rice", 3, 2000, time.August)
	add("maize", 5, 1500, time.September)
	add("wheat", 9, 2200, time.January)
	for i := 0; i < 6; i++ {
		add(fmt.Sprintf("crop-%d", i), 1, 100, time.October)
	}

	picks := NewAggregator(repository.NewPriceStore(recs)).RankSeason(models.SeasonRainy, 6)
	if len(picks) != 6 {
		t.Fatalf("expected 6 picks, got %d", len(picks))
	}
	if picks[0].Commodity != "maize" || picks[1].Commodity != "rice" || picks[2].Commodity != "onion" {
		t.Fatalf("unexpected order %+v", picks)
	}
	for _, p := range picks {
		if p.Commodity == "wheat" {
			t.Fatalf("wheat has no rainy-season records")
		}
	}
}

func TestMaxMarketsOption(t *testing.T) {
	var recs []models.PriceRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, rec("garlic", fmt.Sprintf("mandi-%d", i), day(5, 1), 4000+float64(i)*10))
	}
	agg := NewAggregator(repository.NewPriceStore(recs), WithMaxMarkets(3))
	chart := agg.BuildChart(models.Query{Commodity: "garlic"}, 1)
	if len(chart.ByMarket) != 3 || chart.ByMarket[0].Market != "mandi-4" {
		t.Fatalf("expected top 3 markets, got %+v", chart.ByMarket)
	}
	if got := agg.LatestRecords(models.Query{Commodity: "garlic"}); len(got) != 5 {
		t.Fatalf("latest records are not capped, got %d", len(got))
	}
	if n := len(NewAggregator(repository.NewPriceStore(recs), WithMaxMarkets(0)).BuildChart(models.Query{Commodity: "garlic"}, 1).ByMarket); n != 5 {
		t.Fatalf("non-positive cap keeps the default, got %d markets", n)
	}
}
