package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/SscSPs/ipsas_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// periodHandler handles the fiscal period lifecycle.
type periodHandler struct {
	periodService portssvc.PeriodAdminSvc
}

// RegisterPeriodRoutes registers routes that create and transition fiscal periods.
func RegisterPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodAdminSvc) {
	h := &periodHandler{periodService: periodService}

	periods := rg.Group("/periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.POST("/:year/:period/close", h.closePeriod)
		periods.POST("/:year/:period/lock", h.lockPeriod)
		periods.POST("/:year/:period/reopen", h.reopenPeriod)
	}
}

// createPeriod godoc
// @Summary Create a fiscal period
// @Description Creates an OPEN period. Periods may not overlap.
// @Tags periods
// @Accept json
// @Produce json
// @Param period body dto.CreatePeriodRequest true "Period definition"
// @Success 201 {object} dto.PeriodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or overlapping period"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Period already exists"
// @Failure 500 {object} dto.ErrorResponse "Failed to create period"
// @Security BearerAuth
// @Router /periods [post]
func (h *periodHandler) createPeriod(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to create period")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

// listPeriods godoc
// @Summary List fiscal periods
// @Tags periods
// @Produce json
// @Param year query int false "Fiscal year; all years when omitted"
// @Success 200 {array} dto.PeriodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid year"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Failed to list periods"
// @Security BearerAuth
// @Router /periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "year must be a positive integer"})
			return
		}
		year = y
	}
	if _, ok := requireActor(c); !ok {
		return
	}

	periods, err := h.periodService.ListPeriods(c.Request.Context(), year)
	if err != nil {
		respondError(c, err, "Failed to list periods")
		return
	}
	c.JSON(http.StatusOK, dto.ToListPeriodResponse(periods))
}

// closePeriod godoc
// @Summary Close a fiscal period
// @Description Moves an OPEN period to CLOSED. Refused while entries dated in the period are still in progress.
// @Tags periods
// @Produce json
// @Param year path int true "Fiscal year"
// @Param period path int true "Fiscal period (1-12)"
// @Success 200 {object} dto.PeriodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid year or period"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Period not found"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition or entries pending"
// @Failure 500 {object} dto.ErrorResponse "Failed to close period"
// @Security BearerAuth
// @Router /periods/{year}/{period}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	h.runTransition(c, "close", h.periodService.ClosePeriod)
}

// lockPeriod godoc
// @Summary Lock a fiscal period
// @Description Moves a CLOSED period to LOCKED. Locked periods never reopen.
// @Tags periods
// @Produce json
// @Param year path int true "Fiscal year"
// @Param period path int true "Fiscal period (1-12)"
// @Success 200 {object} dto.PeriodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid year or period"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Period not found"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Failure 500 {object} dto.ErrorResponse "Failed to lock period"
// @Security BearerAuth
// @Router /periods/{year}/{period}/lock [post]
func (h *periodHandler) lockPeriod(c *gin.Context) {
	h.runTransition(c, "lock", h.periodService.LockPeriod)
}

// reopenPeriod godoc
// @Summary Reopen a closed fiscal period
// @Tags periods
// @Produce json
// @Param year path int true "Fiscal year"
// @Param period path int true "Fiscal period (1-12)"
// @Success 200 {object} dto.PeriodResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid year or period"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Period not found"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Failure 500 {object} dto.ErrorResponse "Failed to reopen period"
// @Security BearerAuth
// @Router /periods/{year}/{period}/reopen [post]
func (h *periodHandler) reopenPeriod(c *gin.Context) {
	h.runTransition(c, "reopen", h.periodService.ReopenPeriod)
}

type periodTransition func(ctx context.Context, key domain.PeriodKey, actor domain.Actor) error

// runTransition applies fn to the period named in the path and answers with the period's new state.
func (h *periodHandler) runTransition(c *gin.Context, verb string, fn periodTransition) {
	key, ok := periodKeyParam(c)
	if !ok {
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("period", key.String()))

	if err := fn(c.Request.Context(), key, actor); err != nil {
		respondError(c, err, "Failed to "+verb+" period")
		return
	}
	logger.Info("Period transition applied", slog.String("action", verb))

	periods, err := h.periodService.ListPeriods(c.Request.Context(), key.FiscalYear)
	if err != nil {
		respondError(c, err, "Failed to load period")
		return
	}
	for i := range periods {
		if periods[i].Key() == key {
			c.JSON(http.StatusOK, dto.ToPeriodResponse(&periods[i]))
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func periodKeyParam(c *gin.Context) (domain.PeriodKey, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "fiscal year must be a positive integer"})
		return domain.PeriodKey{}, false
	}
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil || period < 1 || period > 12 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "fiscal period must be between 1 and 12"})
		return domain.PeriodKey{}, false
	}
	return domain.PeriodKey{FiscalYear: year, PeriodNumber: period}, true
}
