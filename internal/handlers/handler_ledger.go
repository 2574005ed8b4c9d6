package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

// ledgerHandler serves the read-side ledger queries.
type ledgerHandler struct {
	trialBalance portssvc.TrialBalanceSvc
	periods      portssvc.PeriodGateSvc
}

// RegisterLedgerRoutes registers the trial balance and period status routes.
func RegisterLedgerRoutes(rg *gin.RouterGroup, trialBalance portssvc.TrialBalanceSvc, periods portssvc.PeriodGateSvc) {
	h := &ledgerHandler{trialBalance: trialBalance, periods: periods}

	rg.GET("/trial-balance/:year/:period", h.getTrialBalance)
	rg.GET("/periods/status", h.getPeriodStatus)
}

// getTrialBalance godoc
// @Summary Get the trial balance of a fiscal period
// @Description Serves a cached trial balance when one is current, otherwise recomputes it from posted entries
// @Tags ledger
// @Produce json
// @Param year path int true "Fiscal year"
// @Param period path int true "Fiscal period (1-12)"
// @Param refresh query bool false "Force recomputation"
// @Success 200 {object} dto.TrialBalanceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid year or period"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Ledger consistency failure or compute error"
// @Security BearerAuth
// @Router /trial-balance/{year}/{period} [get]
func (h *ledgerHandler) getTrialBalance(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "fiscal year must be a positive integer"})
		return
	}
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil || period < 1 || period > 12 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "fiscal period must be between 1 and 12"})
		return
	}
	if _, ok := requireActor(c); !ok {
		return
	}

	var tb *domain.TrialBalance
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		tb, err = h.trialBalance.ComputeTrialBalance(c.Request.Context(), year, period)
	} else {
		tb, err = h.trialBalance.GetTrialBalance(c.Request.Context(), year, period)
	}
	if err != nil {
		respondError(c, err, "Failed to compute trial balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(tb))
}

// getPeriodStatus godoc
// @Summary Get the status of the period containing a date
// @Tags ledger
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} dto.PeriodStatusResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid date"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "No period contains the date"
// @Failure 500 {object} dto.ErrorResponse "Failed to look up period"
// @Security BearerAuth
// @Router /periods/status [get]
func (h *ledgerHandler) getPeriodStatus(c *gin.Context) {
	var params dto.PeriodStatusParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}
	if _, ok := requireActor(c); !ok {
		return
	}
	date, err := time.Parse(time.DateOnly, params.Date)
	if err != nil {
		badRequest(c, "Invalid date", err)
		return
	}

	status, err := h.periods.PeriodStatus(c.Request.Context(), date)
	if err != nil {
		respondError(c, err, "Failed to look up period")
		return
	}
	c.JSON(http.StatusOK, dto.PeriodStatusResponse{Date: params.Date, Status: status})
}
