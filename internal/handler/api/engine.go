package api

import (
	"errors"
	"net/http"
	"time"

	"EdgeDesk/internal/domain/models"
	domrepo "EdgeDesk/internal/domain/repository"
	"EdgeDesk/internal/usecase"
	xhttp "EdgeDesk/pkg/http"
	"EdgeDesk/pkg/http/middleware"
	xlogger "EdgeDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EngineHandler exposes the scan, trade and dashboard endpoints.
type EngineHandler struct {
	logger  *xlogger.Logger
	arb     *usecase.ArbitrageScanner
	ledger  *usecase.TradeLedger
	agg     *usecase.DashboardAggregator
	signals usecase.SignalFeed
	limiter middleware.Admitter
	metrics domrepo.Metrics
}

func NewEngineHandler(
	logger *xlogger.Logger,
	arb *usecase.ArbitrageScanner,
	ledger *usecase.TradeLedger,
	agg *usecase.DashboardAggregator,
	signals usecase.SignalFeed,
	limiter middleware.Admitter,
	metrics domrepo.Metrics,
) *EngineHandler {
	return &EngineHandler{
		logger:  logger,
		arb:     arb,
		ledger:  ledger,
		agg:     agg,
		signals: signals,
		limiter: limiter,
		metrics: metrics,
	}
}

func (h *EngineHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api", middleware.RateLimit(h.limiter, h.metrics.RecordRateLimited))
	g.POST("/scan", h.Scan)
	g.POST("/trades", h.OpenTrade)
	g.POST("/trades/:id/close", h.CloseTrade)
	g.GET("/signals", h.Signals)
	g.GET("/dashboard", h.Dashboard)
}

func (h *EngineHandler) Scan(c echo.Context) error {
	start := time.Now()
	req := &models.ArbitrageScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	opps, err := h.arb.Scan(req.Symbol, req.FairProbability, req.MinEdgeBps, req.Quotes)
	if err != nil {
		if errors.Is(err, models.ErrInvalidQuote) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("arbitrage scan error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.agg.RecordOpportunities(opps)
	h.metrics.RecordLatency("arbitrage_scan", time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, opps)
}

func (h *EngineHandler) OpenTrade(c echo.Context) error {
	req := &models.OpenTradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.ledger.Open(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRisk) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("open trade error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, t)
}

func (h *EngineHandler) CloseTrade(c echo.Context) error {
	id := c.Param("id")
	req := &models.CloseTradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.ledger.Close(c.Request().Context(), id, req.ExitProbability)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("trade not found"))
		case errors.Is(err, models.ErrAlreadyClosed):
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("ERR_ALREADY_CLOSED", "trade already closed"))
		default:
			h.logger.Error("close trade error", xlogger.String("trade", id), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *EngineHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *EngineHandler) Signals(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.signals.Signals())
}

func (h *EngineHandler) Dashboard(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.agg.Build(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("dashboard build error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, view)
}
