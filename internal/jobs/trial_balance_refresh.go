package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/platform/metrics"
	"github.com/hibiken/asynq"
)

// TrialBalanceComputer recomputes a period's trial balance, refreshing its snapshot and cache.
type TrialBalanceComputer interface {
	ComputeTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error)
}

// TrialBalanceRefreshJob warms the snapshot of a period after it has been posted to.
type TrialBalanceRefreshJob struct {
	Service TrialBalanceComputer
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewTrialBalanceRefreshJob constructs the job handler.
func NewTrialBalanceRefreshJob(service TrialBalanceComputer, logger *slog.Logger, m *metrics.Metrics) *TrialBalanceRefreshJob {
	return &TrialBalanceRefreshJob{Service: service, Logger: logger, Metrics: m}
}

// Handle executes the refresh.
func (j *TrialBalanceRefreshJob) Handle(ctx context.Context, task *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("trial balance refresh: dependencies not configured")
	}
	var payload TrialBalanceRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("trial balance refresh: bad payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := payload.validate(); err != nil {
		return fmt.Errorf("trial balance refresh: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskTrialBalanceRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	key := payload.key()
	tb, err := j.Service.ComputeTrialBalance(ctx, payload.FiscalYear, payload.FiscalPeriod)
	if err != nil {
		j.log().Error("compute trial balance", slog.String("period", key.String()), slog.Any("error", err))
		// Recomputing an inconsistent ledger gives the same answer; the integrity check reports it.
		var cErr *apperrors.ConsistencyError
		if errors.As(err, &cErr) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	j.log().Info("refreshed trial balance",
		slog.String("period", key.String()),
		slog.Int("accounts", len(tb.Lines)),
		slog.String("closing_debit", tb.TotalClosingDebit.StringFixed(2)))
	return nil
}

func (j *TrialBalanceRefreshJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTrialBalanceRefresh))
	}
	return slog.Default().With(slog.String("job", TaskTrialBalanceRefresh))
}
