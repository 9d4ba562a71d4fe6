package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
	"MandiPulse/internal/service/metrics"
	"MandiPulse/internal/service/ratelimit"
	"MandiPulse/internal/services/livefeed"
	"MandiPulse/internal/usecase"
	xhttp "MandiPulse/pkg/http"
	xlogger "MandiPulse/pkg/logger"
)

// MarketEchoHandler exposes the market intelligence use cases over HTTP.
type MarketEchoHandler struct {
	logger   *xlogger.Logger
	store    domrepo.PriceReader
	insights *usecase.MarketInsightsUseCase
	prices   *usecase.MarketPricesUseCase
	limiter  *ratelimit.Limiter
	metrics  *metrics.EndpointMetrics
}

var _ xhttp.Handler = (*MarketEchoHandler)(nil)

// NewMarketEchoHandler accepts a nil limiter (no rate limiting) and nil metrics.
func NewMarketEchoHandler(logger *xlogger.Logger, store domrepo.PriceReader, insights *usecase.MarketInsightsUseCase, prices *usecase.MarketPricesUseCase, limiter *ratelimit.Limiter, m *metrics.EndpointMetrics) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, store: store, insights: insights, prices: prices, limiter: limiter, metrics: m}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/market-insights/:crop", h.Insights)
	g.GET("/agmarket/history", h.History)
	g.GET("/agmarket/live", h.Live, h.rateLimit("live"))
	g.GET("/ceda/commodities", h.Commodities)
	g.GET("/seasonal-recommendations/:season", h.Seasonal)
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":       "healthy",
		"records":      len(h.store.All()),
		"commodities":  len(h.store.Commodities()),
		"live_sources": h.prices.LiveSources(),
		"time":         time.Now().UTC(),
	})
}

func (h *MarketEchoHandler) Insights(c echo.Context) (err error) {
	defer h.observe(c, "insights", time.Now(), &err)
	req := &models.InsightsRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.insights.GetInsights(c.Request().Context(), usecase.InsightParams{
		Crop:     req.Crop,
		State:    req.State,
		District: req.District,
		Market:   req.Market,
		Season:   req.Season,
	})
	if err != nil {
		return h.fail(c, "insights", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) History(c echo.Context) (err error) {
	defer h.observe(c, "history", time.Now(), &err)
	req := &models.HistoryRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.prices.History(c.Request().Context(), usecase.HistoryParams{
		Commodity: req.Commodity,
		State:     req.State,
		District:  req.District,
		Market:    req.Market,
		Days:      req.Days,
	})
	if err != nil {
		return h.fail(c, "history", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Live(c echo.Context) (err error) {
	defer h.observe(c, "live", time.Now(), &err)
	req := &models.LiveRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.prices.Live(c.Request().Context(), usecase.LiveParams{Commodity: req.Commodity, Source: req.Source})
	if err != nil {
		return h.fail(c, "live", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Commodities(c echo.Context) (err error) {
	defer h.observe(c, "commodities", time.Now(), &err)
	list, err := h.prices.Commodities(c.Request().Context())
	if err != nil {
		return h.fail(c, "commodities", err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"commodities": list, "count": len(list)})
}

func (h *MarketEchoHandler) Seasonal(c echo.Context) (err error) {
	defer h.observe(c, "seasonal", time.Now(), &err)
	req := &models.SeasonRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	picks, err := h.prices.Seasonal(c.Request().Context(), req.Season)
	if err != nil {
		return h.fail(c, "seasonal", err)
	}
	crops := make([]string, len(picks))
	for i, p := range picks {
		crops[i] = p.Commodity
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"season":            req.Season,
		"recommended_crops": crops,
		"ranking":           picks,
	})
}

// fail maps use-case errors onto AppErrors and logs anything unexpected.
func (h *MarketEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	var fe *livefeed.FeedError
	switch {
	case errors.Is(err, usecase.ErrCommodityRequired):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("commodity", err.Error()))
	case errors.Is(err, usecase.ErrUnknownSeason):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("season",
			"Invalid season %q. Use summer, rainy, winter, or spring.", c.Param("season")))
	case errors.Is(err, usecase.ErrCatalogUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(livefeed.CodeNoSources, livefeed.Message(livefeed.CodeNoSources)))
	case errors.As(err, &fe):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(fe.Code, livefeed.Message(fe.Code)).WithError(err))
	}
	if h.logger != nil {
		h.logger.Error("market usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, err)
}

// observe counts a call as failed when it returned an error or wrote a 5xx.
func (h *MarketEchoHandler) observe(c echo.Context, endpoint string, start time.Time, err *error) {
	failed := *err != nil || c.Response().Status >= http.StatusInternalServerError
	h.metrics.Observe(endpoint, start, failed)
}

func (h *MarketEchoHandler) rateLimit(endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
				h.metrics.RateLimited(endpoint)
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many live price requests, slow down."))
			}
			return next(c)
		}
	}
}
