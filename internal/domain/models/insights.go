package models

import "time"

// Direction of a price trend.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// StabilityCategory buckets the coefficient of variation of price.
type StabilityCategory string

const (
	StabilityStable   StabilityCategory = "stable"
	StabilityModerate StabilityCategory = "moderate"
	StabilityVolatile StabilityCategory = "volatile"
)

// TrendResult is derived from a price series and never stored.
type TrendResult struct {
	Direction  Direction `json:"trend"`
	Strength   float64   `json:"strength"`   // 0-100
	Confidence float64   `json:"confidence"` // 0-1
	Points     int       `json:"points"`
	EarlyAvg   float64   `json:"early_avg,omitempty"`
	LateAvg    float64   `json:"late_avg,omitempty"`
	ChangePct  float64   `json:"change_pct,omitempty"`
	SlopePct   float64   `json:"slope_pct_per_day,omitempty"`
}

type StabilityResult struct {
	Category StabilityCategory `json:"category"`
	CV       float64           `json:"cv"`
	Points   int               `json:"points"`
}

// Forecast is the output of the forecast engine over a fixed horizon.
type Forecast struct {
	Average      float64   `json:"avg"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Days         int       `json:"days"`
	Model        string    `json:"model"`
	TrainingID   string    `json:"training_id"`
	TrainedAt    time.Time `json:"trained_at"`
	LastObserved time.Time `json:"last_observed"`
}

// PriceAt is a price stamped with the date it was observed.
type PriceAt struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Date  string  `json:"date,omitempty"`
	Days  int     `json:"days,omitempty"`
}

type Coverage struct {
	Records             int    `json:"records"`
	From                string `json:"from"`
	To                  string `json:"to"`
	SeasonFilterApplied bool   `json:"season_filter_applied"`
}

// InsightResult is the trend + stability + forecast summary for one query.
// HasData=false results carry only Commodity and Recommendation.
type InsightResult struct {
	HasData          bool              `json:"has_data"`
	Commodity        string            `json:"commodity"`
	Trend            Direction         `json:"trend,omitempty"`
	TrendDetails     *TrendResult      `json:"trend_details,omitempty"`
	Stability        StabilityCategory `json:"stability,omitempty"`
	DemandTrend      string            `json:"demand_trend,omitempty"`
	MarketRisk       string            `json:"market_risk,omitempty"`
	LatestPrice      *PriceAt          `json:"latest_price,omitempty"`
	RecentAverage    *PriceAt          `json:"recent_average,omitempty"`
	Average90        *PriceAt          `json:"average_90d,omitempty"`
	PriceChange90Pct float64           `json:"price_change_90d_pct"`
	Forecast         *Forecast         `json:"forecast_30d,omitempty"`
	Recommendation   string            `json:"recommendation"`
	Coverage         *Coverage         `json:"data_coverage,omitempty"`
	Errors           map[string]string `json:"errors,omitempty"`
}

// ChartPoint is one day of the chart series.
type ChartPoint struct {
	Date       string  `json:"date"`
	ModalPrice float64 `json:"modal_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

// MarketSnapshot is the latest-day price at one mandi.
type MarketSnapshot struct {
	Market     string  `json:"market"`
	State      string  `json:"state"`
	District   string  `json:"district"`
	ModalPrice float64 `json:"modal_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

type ChartResult struct {
	TimeSeries []ChartPoint     `json:"time_series"`
	ByMarket   []MarketSnapshot `json:"by_mandi"`
	LatestDate string           `json:"latest_date,omitempty"`
}

// LiveResult answers a "current price" query, from an external feed when Live is set
// and from the local dataset otherwise.
type LiveResult struct {
	Live      bool          `json:"live"`
	Records   []PriceRecord `json:"records"`
	Source    string        `json:"source"`
	Message   string        `json:"message,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	Today     *PriceAt      `json:"today,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// SeasonalPick is one commodity ranked for a season by record count, then average price.
type SeasonalPick struct {
	Commodity string  `json:"commodity"`
	Records   int     `json:"records"`
	AvgPrice  float64 `json:"avg_price"`
}

// Commodity is one entry in an external source's commodity catalog.
type Commodity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
