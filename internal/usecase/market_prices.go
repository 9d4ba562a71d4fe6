package usecase

import (
	"context"
	"strings"
	"time"

	"MandiPulse/internal/domain/models"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/internal/services/series"
	"MandiPulse/pkg/logger"
)

const (
	LiveSourceAPI   = "api"
	LiveSourceLocal = "local"

	// LocalSourceTag marks live answers served from the bundled dataset.
	LocalSourceTag = "local_dataset"

	seasonalPicks = 6
)

// MarketPricesUseCase serves chart history, current prices, seasonal rankings
// and the external commodity catalog.
type MarketPricesUseCase struct {
	series  domsvc.SeriesBuilder
	live    domsvc.LiveFeed
	catalog domsvc.CommodityCatalog
	l       *logger.Logger
	now     func() time.Time
}

// NewMarketPricesUseCase accepts a nil live feed or catalog; live queries then
// always answer from the dataset.
func NewMarketPricesUseCase(sb domsvc.SeriesBuilder, live domsvc.LiveFeed, catalog domsvc.CommodityCatalog, l *logger.Logger) *MarketPricesUseCase {
	return &MarketPricesUseCase{series: sb, live: live, catalog: catalog, l: l, now: time.Now}
}

type HistoryParams struct {
	Commodity string
	State     string
	District  string
	Market    string
	Days      int
}

func (uc *MarketPricesUseCase) History(_ context.Context, p HistoryParams) (models.ChartResult, error) {
	if strings.TrimSpace(p.Commodity) == "" {
		return models.ChartResult{}, ErrCommodityRequired
	}
	q := models.Query{Commodity: p.Commodity, State: p.State, District: p.District, Market: p.Market}
	return uc.series.BuildChart(q, p.Days), nil
}

type LiveParams struct {
	Commodity string
	Source    string
}

// Live tries the external feeds unless Source is local, then falls back to the
// latest dataset records per market. A failed live attempt keeps its error code
// and message on the fallback result.
func (uc *MarketPricesUseCase) Live(ctx context.Context, p LiveParams) (models.LiveResult, error) {
	commodity := strings.TrimSpace(p.Commodity)
	if commodity == "" {
		return models.LiveResult{}, ErrCommodityRequired
	}

	var attempt models.LiveResult
	if p.Source != LiveSourceLocal && uc.live != nil {
		attempt = uc.live.FetchLive(ctx, commodity)
		if attempt.Live {
			attempt.Today = series.TodayPrice(attempt.Records)
			return attempt, nil
		}
		if uc.l != nil {
			uc.l.Info("live prices unavailable, using dataset",
				logger.String("commodity", commodity),
				logger.String("code", attempt.ErrorCode))
		}
	}

	recs := uc.series.LatestRecords(models.Query{Commodity: commodity})
	res := models.LiveResult{
		Live:      false,
		Records:   recs,
		Source:    LocalSourceTag,
		ErrorCode: attempt.ErrorCode,
		Message:   attempt.Message,
		Today:     series.TodayPrice(recs),
		FetchedAt: uc.now().UTC(),
	}
	if len(recs) == 0 && res.Message == "" {
		res.Message = "No price records found for " + commodity + " in current market dataset."
	}
	return res, nil
}

// Seasonal returns up to six title-cased commodities most observed in season.
func (uc *MarketPricesUseCase) Seasonal(_ context.Context, season string) ([]models.SeasonalPick, error) {
	s, ok := models.ParseSeason(season)
	if !ok {
		return nil, ErrUnknownSeason
	}
	picks := uc.series.RankSeason(s, seasonalPicks)
	for i := range picks {
		picks[i].Commodity = titleCase(picks[i].Commodity)
	}
	return picks, nil
}

// LiveSources names the live feeds tried before the dataset fallback.
func (uc *MarketPricesUseCase) LiveSources() []string {
	if uc.live == nil {
		return []string{}
	}
	return uc.live.Sources()
}

func (uc *MarketPricesUseCase) Commodities(ctx context.Context) ([]models.Commodity, error) {
	if uc.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	return uc.catalog.Commodities(ctx)
}
