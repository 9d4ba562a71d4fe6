package livefeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"MandiPulse/internal/domain/models"
	domsvc "MandiPulse/internal/domain/service"
	pkgcache "MandiPulse/pkg/cache"
	xhttp "MandiPulse/pkg/http"
	"MandiPulse/pkg/logger"
	"MandiPulse/pkg/util"
)

const CEDAName = "ceda-agmarknet"

type CEDAConfig struct {
	APIKey     string
	BaseURL    string
	CatalogTTL time.Duration
	// CatalogTimeout bounds one shared catalog download.
	CatalogTimeout time.Duration
}

// CEDASource resolves commodities against the CEDA Agmarknet catalog and
// fetches prices by commodity id.
type CEDASource struct {
	base       httpBase
	apiKey     string
	cache      pkgcache.Service
	catalogTTL time.Duration
	loadTTL    time.Duration
	group      singleflight.Group
	l          *logger.Logger
	now        func() time.Time
}

var (
	_ Source                  = (*CEDASource)(nil)
	_ domsvc.CommodityCatalog = (*CEDASource)(nil)
)

func NewCEDASource(cfg CEDAConfig, client *xhttp.Client, cache pkgcache.Service, l *logger.Logger) *CEDASource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.ceda.ashoka.edu.in/v1/agmarknet"
	}
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = 6 * time.Hour
	}
	if cfg.CatalogTimeout <= 0 {
		cfg.CatalogTimeout = 12 * time.Second
	}
	if cache == nil {
		cache = pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(16))
	}
	return &CEDASource{
		base:       newHTTPBase(cfg.BaseURL, client),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		cache:      cache,
		catalogTTL: cfg.CatalogTTL,
		loadTTL:    cfg.CatalogTimeout,
		l:          l,
		now:        time.Now,
	}
}

func (s *CEDASource) Name() string { return CEDAName }

func (s *CEDASource) headers() map[string]string {
	if s.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + s.apiKey}
}

// Commodities returns the catalog, loading it at most once per TTL across
// concurrent callers. The shared download is detached from any single caller;
// each caller only stops waiting when its own ctx ends.
func (s *CEDASource) Commodities(ctx context.Context) ([]models.Commodity, error) {
	if s.apiKey == "" {
		return nil, newFeedError(CEDAName, CodeNoAPIKey, nil)
	}
	ch := s.group.DoChan("catalog", func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTTL)
		defer cancel()
		return pkgcache.GetOrLoad(lctx, s.cache, pkgcache.Key("ceda", "commodities"), s.catalogTTL, s.fetchCatalog)
	})
	select {
	case <-ctx.Done():
		return nil, newFeedError(CEDAName, CodeFetchFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, newFeedError(CEDAName, CodeFetchFailed, res.Err)
		}
		return res.Val.([]models.Commodity), nil
	}
}

func (s *CEDASource) fetchCatalog(ctx context.Context) ([]models.Commodity, error) {
	var body interface{}
	if err := s.base.getJSON(ctx, "/commodities", nil, s.headers(), &body); err != nil {
		return nil, err
	}
	rows := extractList(body)
	out := make([]models.Commodity, 0, len(rows))
	for _, row := range rows {
		c := models.Commodity{
			ID:   firstString(row, "id", "commodity_id", "commodityId"),
			Name: firstString(row, "name", "commodity_name", "commodity", "commodityName"),
		}
		if c.ID != "" && c.Name != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty commodity catalog")
	}
	if s.l != nil {
		s.l.Info("ceda catalog loaded", logger.Int("commodities", len(out)))
	}
	return out, nil
}

func (s *CEDASource) Fetch(ctx context.Context, commodity string) ([]models.PriceRecord, error) {
	catalog, err := s.Commodities(ctx)
	if err != nil {
		return nil, err
	}
	match, ok := ResolveCommodity(catalog, commodity)
	if !ok {
		return nil, newFeedError(CEDAName, CodeCommodityNotFound, nil)
	}
	var body interface{}
	if err := s.base.getJSON(ctx, "/prices", map[string][]string{"commodity_id": {match.ID}}, s.headers(), &body); err != nil {
		return nil, newFeedError(CEDAName, CodeFetchFailed, err)
	}
	recs := normalizeRecords(extractList(body), match.Name, s.now())
	if len(recs) == 0 {
		return nil, newFeedError(CEDAName, CodeNoData, nil)
	}
	return recs, nil
}

// ResolveCommodity matches free text against catalog names: exact first, then
// prefix, then substring, all on normalized text.
func ResolveCommodity(catalog []models.Commodity, query string) (models.Commodity, bool) {
	q := util.Normalize(query)
	if q == "" {
		return models.Commodity{}, false
	}
	matchers := []func(name string) bool{
		func(name string) bool { return name == q },
		func(name string) bool { return strings.HasPrefix(name, q) },
		func(name string) bool { return strings.Contains(name, q) },
	}
	for _, match := range matchers {
		for _, c := range catalog {
			if match(util.Normalize(c.Name)) {
				return c, true
			}
		}
	}
	return models.Commodity{}, false
}

func firstString(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			if s := strings.TrimSpace(stringify(v)); s != "" {
				return s
			}
		}
	}
	return ""
}
