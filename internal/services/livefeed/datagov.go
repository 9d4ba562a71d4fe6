package livefeed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"MandiPulse/internal/domain/models"
	xhttp "MandiPulse/pkg/http"
	"MandiPulse/pkg/logger"
)

const DataGovName = "data.gov.in"

// DefaultDataGovResources are tried in order.
var DefaultDataGovResources = []string{
	"9ef84268-d588-465a-a308-a864a43d0070",
	"variety-wise-daily-market-prices-data-commodity",
}

type DataGovConfig struct {
	APIKey    string
	BaseURL   string
	Resources []string
	Limit     int
}

// DataGovSource queries the data.gov.in open data resource API.
type DataGovSource struct {
	base      httpBase
	apiKey    string
	resources []string
	limit     int
	l         *logger.Logger
	now       func() time.Time
}

var _ Source = (*DataGovSource)(nil)

func NewDataGovSource(cfg DataGovConfig, client *xhttp.Client, l *logger.Logger) *DataGovSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.data.gov.in/resource"
	}
	if len(cfg.Resources) == 0 {
		cfg.Resources = DefaultDataGovResources
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	return &DataGovSource{
		base:      newHTTPBase(cfg.BaseURL, client),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		resources: cfg.Resources,
		limit:     cfg.Limit,
		l:         l,
		now:       time.Now,
	}
}

func (s *DataGovSource) Name() string { return DataGovName }

type dataGovResponse struct {
	Status  string                   `json:"status"`
	Message string                   `json:"message"`
	Records []map[string]interface{} `json:"records"`
}

// Fetch tries every resource with the Title Case and as-given spellings of
// commodity and returns the first non-empty answer.
func (s *DataGovSource) Fetch(ctx context.Context, commodity string) ([]models.PriceRecord, error) {
	if s.apiKey == "" {
		return nil, newFeedError(DataGovName, CodeNoAPIKey, nil)
	}
	var lastErr error
	answered := false
	for _, res := range s.resources {
		for _, variant := range commodityVariants(commodity) {
			var body dataGovResponse
			err := s.base.getJSON(ctx, "/"+res, map[string][]string{
				"api-key":            {s.apiKey},
				"format":             {"json"},
				"limit":              {strconv.Itoa(s.limit)},
				"offset":             {"0"},
				"filters[commodity]": {variant},
			}, nil, &body)
			if err != nil {
				lastErr = err
				if s.l != nil {
					s.l.Warn("data.gov.in candidate failed",
						logger.String("resource", res),
						logger.String("commodity", variant),
						logger.Error(err))
				}
				if ctx.Err() != nil {
					return nil, newFeedError(DataGovName, CodeFetchFailed, ctx.Err())
				}
				continue
			}
			answered = true
			if recs := normalizeRecords(body.Records, commodity, s.now()); len(recs) > 0 {
				return recs, nil
			}
		}
	}
	if !answered && lastErr != nil {
		return nil, newFeedError(DataGovName, CodeFetchFailed, lastErr)
	}
	return nil, newFeedError(DataGovName, CodeNoData, nil)
}

// commodityVariants returns the Title Case spelling first, then the trimmed
// input when it differs.
func commodityVariants(commodity string) []string {
	given := strings.TrimSpace(commodity)
	if given == "" {
		return nil
	}
	title := cases.Title(language.English).String(strings.ToLower(given))
	if title == given {
		return []string{title}
	}
	return []string{title, given}
}
