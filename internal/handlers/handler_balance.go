package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/middleware"
)

// balanceHandler handles balance and trial-balance queries.
type balanceHandler struct {
	balanceService portssvc.BalanceSvcFacade
}

func newBalanceHandler(balanceService portssvc.BalanceSvcFacade) *balanceHandler {
	return &balanceHandler{balanceService: balanceService}
}

// parseAsOf reads the optional asOf query parameter, defaulting to now.
func parseAsOf(c *gin.Context) (time.Time, bool) {
	raw := c.Query("asOf")
	if raw == "" {
		return time.Now().UTC(), true
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return asOf, true
}

func (h *balanceHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	accountID := c.Param("accountID")

	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	balance, err := h.balanceService.AccountBalance(c.Request.Context(), orgID, accountID, asOf)
	if err != nil {
		respondError(c, logger, err, "compute account balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *balanceHandler) listPeriodBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	accountID := c.Param("accountID")

	balances, err := h.balanceService.PeriodBalances(c.Request.Context(), orgID, accountID)
	if err != nil {
		respondError(c, logger, err, "list period balances")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountID": accountID, "balances": balances})
}

func (h *balanceHandler) getPeriodBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")
	accountID := c.Param("accountID")
	periodID := c.Param("periodID")

	balance, err := h.balanceService.PeriodBalance(c.Request.Context(), orgID, accountID, periodID)
	if err != nil {
		respondError(c, logger, err, "retrieve period balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *balanceHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")

	var params dto.TrialBalanceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for getTrialBalance", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	report, err := h.balanceService.TrialBalance(c.Request.Context(), orgID, params)
	if err != nil {
		respondError(c, logger, err, "compute trial balance")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *balanceHandler) getComparativeTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orgID := c.Param("orgID")

	var params dto.ComparativeTrialBalanceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for getComparativeTrialBalance", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	report, err := h.balanceService.ComparativeTrialBalance(c.Request.Context(), orgID, params)
	if err != nil {
		respondError(c, logger, err, "compute comparative trial balance")
		return
	}
	c.JSON(http.StatusOK, report)
}

// registerBalanceRoutes registers balance and trial-balance query routes.
func registerBalanceRoutes(group *gin.RouterGroup, balanceSvc portssvc.BalanceSvcFacade) {
	h := newBalanceHandler(balanceSvc)

	accounts := group.Group("/accounts")
	{
		accounts.GET("/:accountID/balance", h.getAccountBalance)
		accounts.GET("/:accountID/period-balances", h.listPeriodBalances)
		accounts.GET("/:accountID/period-balances/:periodID", h.getPeriodBalance)
	}
	group.GET("/trial-balance", h.getTrialBalance)
	group.GET("/trial-balance/comparative", h.getComparativeTrialBalance)
}
