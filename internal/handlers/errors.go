package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/SscSPs/ipsas_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto an HTTP status and error body.
// Unclassified errors are logged and reported as fallback with a 500.
func respondError(c *gin.Context, err error, fallback string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var (
		vErr   *apperrors.ValidationError
		wfErr  *apperrors.WorkflowError
		pErr   *apperrors.PostingError
		cErr   *apperrors.ConsistencyError
		appErr *apperrors.AppError
	)
	switch {
	case errors.As(err, &vErr):
		logger.Warn("Entry failed validation", slog.String("rule", string(vErr.Rule)))
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: vErr.Message, Rule: string(vErr.Rule), Lines: vErr.Lines})
	case errors.As(err, &pErr):
		status := postingStatus(pErr.Reason)
		if status >= http.StatusInternalServerError {
			logger.Error("Posting failed", slog.String("error", err.Error()))
		}
		c.JSON(status, dto.ErrorResponse{Error: err.Error(), Reason: string(pErr.Reason)})
	case errors.As(err, &wfErr):
		status := http.StatusConflict
		if errors.Is(err, apperrors.ErrForbidden) {
			status = http.StatusForbidden
		}
		logger.Warn("Workflow transition refused", slog.String("error", err.Error()))
		c.JSON(status, dto.ErrorResponse{Error: err.Error(), Reason: string(wfErr.Kind)})
	case errors.As(err, &cErr):
		logger.Error("Ledger consistency failure", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Reason: "consistency"})
	case errors.As(err, &appErr):
		c.JSON(appErr.Code, dto.ErrorResponse{Error: appErr.Message})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrPeriodNotOpen):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrReferenced), errors.Is(err, apperrors.ErrStaleState):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fallback})
	}
}

func postingStatus(reason apperrors.PostingReason) int {
	switch reason {
	case apperrors.ReasonStore:
		return http.StatusInternalServerError
	case apperrors.ReasonLock, apperrors.ReasonAborted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

// requireActor reads the authenticated actor, answering 401 when it is missing.
func requireActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return domain.Actor{}, false
	}
	return actor, true
}

func badRequest(c *gin.Context, msg string, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn(msg, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg + ": " + err.Error()})
}
