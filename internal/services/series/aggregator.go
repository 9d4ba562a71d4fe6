package series

import (
	"sort"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/domain/repository"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/pkg/util"
)

const (
	DefaultWindowDays = 30
	DefaultMaxMarkets = 15
	PriceUnit         = "INR/quintal"
)

// Aggregator builds daily chart series and per-market snapshots over the store.
type Aggregator struct {
	store      repository.PriceReader
	maxMarkets int
}

var _ domsvc.SeriesBuilder = (*Aggregator)(nil)

type Option func(*Aggregator)

// WithMaxMarkets caps the number of market snapshots in a chart.
func WithMaxMarkets(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxMarkets = n
		}
	}
}

func NewAggregator(store repository.PriceReader, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, maxMarkets: DefaultMaxMarkets}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type dayAgg struct {
	day      time.Time
	modalSum float64
	n        int
	min, max float64
}

func (d *dayAgg) add(r models.PriceRecord) {
	if d.n == 0 || r.MinPrice < d.min {
		d.min = r.MinPrice
	}
	if d.n == 0 || r.MaxPrice > d.max {
		d.max = r.MaxPrice
	}
	d.modalSum += r.ModalPrice
	d.n++
}

func (d *dayAgg) point(day time.Time) models.ChartPoint {
	return models.ChartPoint{
		Date:       util.FormatDate(day),
		ModalPrice: util.Round2(d.modalSum / float64(d.n)),
		MinPrice:   util.Round2(d.min),
		MaxPrice:   util.Round2(d.max),
	}
}

// BuildChart returns exactly windowDays daily points ending at the latest observed
// date. Days without observations copy the nearest observed day, the earlier one
// on a tie.
func (a *Aggregator) BuildChart(q models.Query, windowDays int) models.ChartResult {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	records := a.store.Filter(q)
	res := models.ChartResult{TimeSeries: []models.ChartPoint{}, ByMarket: []models.MarketSnapshot{}}
	if len(records) == 0 {
		return res
	}

	latest := util.Day(models.LatestDate(records))
	start := latest.AddDate(0, 0, -(windowDays - 1))

	byDay := make(map[time.Time]*dayAgg)
	for _, r := range records {
		day := util.Day(r.PriceDate)
		if day.Before(start) {
			continue
		}
		agg, ok := byDay[day]
		if !ok {
			agg = &dayAgg{day: day}
			byDay[day] = agg
		}
		agg.add(r)
	}
	days := make([]*dayAgg, 0, len(byDay))
	for _, agg := range byDay {
		days = append(days, agg)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].day.Before(days[j].day) })

	if len(days) >= windowDays {
		for _, d := range days {
			res.TimeSeries = append(res.TimeSeries, d.point(d.day))
		}
	} else {
		for i := 0; i < windowDays; i++ {
			day := start.AddDate(0, 0, i)
			res.TimeSeries = append(res.TimeSeries, nearest(days, day).point(day))
		}
	}

	for _, r := range a.latestPerMarket(records) {
		if len(res.ByMarket) == a.maxMarkets {
			break
		}
		res.ByMarket = append(res.ByMarket, models.MarketSnapshot{
			Market:     r.Market,
			State:      r.State,
			District:   r.District,
			ModalPrice: r.ModalPrice,
			MinPrice:   r.MinPrice,
			MaxPrice:   r.MaxPrice,
		})
	}
	res.LatestDate = util.FormatDate(latest)
	return res
}

// nearest picks the observed day closest to target; days must be sorted and non-empty.
func nearest(days []*dayAgg, target time.Time) *dayAgg {
	i := sort.Search(len(days), func(i int) bool { return !days[i].day.Before(target) })
	switch {
	case i == 0:
		return days[0]
	case i == len(days):
		return days[len(days)-1]
	case days[i].day.Equal(target):
		return days[i]
	}
	before, after := days[i-1], days[i]
	if target.Sub(before.day) <= after.day.Sub(target) {
		return before
	}
	return after
}

// LatestRecords returns one record per (market, state, district) for that market's
// latest observed day, sorted by modal price descending.
func (a *Aggregator) LatestRecords(q models.Query) []models.PriceRecord {
	return a.latestPerMarket(a.store.Filter(q))
}

func (a *Aggregator) latestPerMarket(records []models.PriceRecord) []models.PriceRecord {
	type marketKey struct{ market, state, district string }
	latest := make(map[marketKey]*dayAgg)
	commodity := make(map[marketKey]string)
	for _, r := range records {
		k := marketKey{r.Market, r.State, r.District}
		day := util.Day(r.PriceDate)
		agg, ok := latest[k]
		if !ok || day.After(agg.day) {
			agg = &dayAgg{day: day}
			latest[k] = agg
			commodity[k] = r.Commodity
		} else if day.Before(agg.day) {
			continue
		}
		agg.add(r)
	}

	out := make([]models.PriceRecord, 0, len(latest))
	for k, agg := range latest {
		out = append(out, models.PriceRecord{
			Commodity:  commodity[k],
			State:      k.state,
			District:   k.district,
			Market:     k.market,
			PriceDate:  agg.day,
			ModalPrice: util.Round2(agg.modalSum / float64(agg.n)),
			MinPrice:   agg.min,
			MaxPrice:   agg.max,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModalPrice != out[j].ModalPrice {
			return out[i].ModalPrice > out[j].ModalPrice
		}
		return out[i].Market < out[j].Market
	})
	return out
}

// TodayPrice averages the modal price over records on the latest date present.
// It returns nil for no records.
func TodayPrice(records []models.PriceRecord) *models.PriceAt {
	if len(records) == 0 {
		return nil
	}
	latest := util.Day(models.LatestDate(records))
	var sum float64
	var n int
	for _, r := range records {
		if util.Day(r.PriceDate).Equal(latest) {
			sum += r.ModalPrice
			n++
		}
	}
	return &models.PriceAt{Value: util.Round2(sum / float64(n)), Unit: PriceUnit, Date: util.FormatDate(latest)}
}

// RankSeason ranks commodities observed in the season's months by record count,
// then by average modal price, both descending.
func (a *Aggregator) RankSeason(season models.Season, n int) []models.SeasonalPick {
	type tally struct {
		count int
		sum   float64
	}
	counts := make(map[string]*tally)
	for _, r := range a.store.All() {
		if !season.Contains(r.PriceDate.Month()) {
			continue
		}
		t, ok := counts[r.Commodity]
		if !ok {
			t = &tally{}
			counts[r.Commodity] = t
		}
		t.count++
		t.sum += r.ModalPrice
	}

	picks := make([]models.SeasonalPick, 0, len(counts))
	for c, t := range counts {
		picks = append(picks, models.SeasonalPick{
			Commodity: c,
			Records:   t.count,
			AvgPrice:  util.Round2(t.sum / float64(t.count)),
		})
	}
	sort.Slice(picks, func(i, j int) bool {
		if picks[i].Records != picks[j].Records {
			return picks[i].Records > picks[j].Records
		}
		if picks[i].AvgPrice != picks[j].AvgPrice {
			return picks[i].AvgPrice > picks[j].AvgPrice
		}
		return picks[i].Commodity < picks[j].Commodity
	})
	if n > 0 && len(picks) > n {
		picks = picks[:n]
	}
	return picks
}
