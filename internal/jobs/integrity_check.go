package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/platform/metrics"
	"github.com/hibiken/asynq"
)

// PeriodLister lists the periods an integrity run should cover.
type PeriodLister interface {
	ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error)
}

// PeriodVerifier recomputes a period and reports drift against its frozen snapshot.
type PeriodVerifier interface {
	VerifyPeriod(ctx context.Context, period domain.FinancialPeriod) (*domain.TrialBalance, error)
}

// IntegrityCheckJob recomputes the trial balance of every period and fails when any of
// them no longer foots or has drifted since it was closed.
type IntegrityCheckJob struct {
	Periods  PeriodLister
	Verifier PeriodVerifier
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	clock    func() time.Time
}

// NewIntegrityCheckJob constructs the job handler.
func NewIntegrityCheckJob(periods PeriodLister, verifier PeriodVerifier, logger *slog.Logger, m *metrics.Metrics) *IntegrityCheckJob {
	return &IntegrityCheckJob{
		Periods:  periods,
		Verifier: verifier,
		Logger:   logger,
		Metrics:  m,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the integrity check.
func (j *IntegrityCheckJob) Handle(ctx context.Context, task *asynq.Task) (resultErr error) {
	if j == nil || j.Periods == nil || j.Verifier == nil {
		return errors.New("integrity check: dependencies not configured")
	}
	var payload IntegrityCheckPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("integrity check: bad payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.Metrics.Track(TaskIntegrityCheck)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	periods, err := j.Periods.ListPeriods(ctx, payload.FiscalYear)
	if err != nil {
		j.log().Error("list periods", slog.Int("fiscal_year", payload.FiscalYear), slog.Any("error", err))
		return err
	}

	start := j.now()
	var drift []error
	for _, p := range periods {
		if _, err := j.Verifier.VerifyPeriod(ctx, p); err != nil {
			var cErr *apperrors.ConsistencyError
			if !errors.As(err, &cErr) {
				j.log().Error("verify period", slog.String("period", p.Key().String()), slog.Any("error", err))
				return err
			}
			drift = append(drift, err)
		}
	}

	if len(drift) > 0 {
		j.log().Error("ledger integrity check found inconsistent periods",
			slog.Int("periods", len(periods)), slog.Int("failed", len(drift)))
		return errors.Join(drift...)
	}
	j.log().Info("ledger integrity check passed",
		slog.Int("periods", len(periods)), slog.Duration("duration", j.now().Sub(start)))
	return nil
}

func (j *IntegrityCheckJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskIntegrityCheck))
	}
	return slog.Default().With(slog.String("job", TaskIntegrityCheck))
}

func (j *IntegrityCheckJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *IntegrityCheckJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
