package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/apperrors"
	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/platform/metrics"
	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPeriodLister struct {
	mock.Mock
}

func (m *MockPeriodLister) ListPeriods(ctx context.Context, fiscalYear int) ([]domain.FinancialPeriod, error) {
	args := m.Called(ctx, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinancialPeriod), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyPeriod(ctx context.Context, period domain.FinancialPeriod) (*domain.TrialBalance, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

type MockComputer struct {
	mock.Mock
}

func (m *MockComputer) ComputeTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error) {
	args := m.Called(ctx, fiscalYear, fiscalPeriod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

func testPeriods() []domain.FinancialPeriod {
	return []domain.FinancialPeriod{
		{FiscalYear: 2024, PeriodNumber: 1, Status: domain.PeriodClosed},
		{FiscalYear: 2024, PeriodNumber: 2, Status: domain.PeriodOpen},
	}
}

func TestIntegrityCheck_AllPeriodsBalanced(t *testing.T) {
	periods := testPeriods()
	lister := new(MockPeriodLister)
	verifier := new(MockVerifier)
	lister.On("ListPeriods", mock.Anything, 0).Return(periods, nil)
	for _, p := range periods {
		verifier.On("VerifyPeriod", mock.Anything, p).Return(&domain.TrialBalance{IsBalanced: true}, nil).Once()
	}

	job := NewIntegrityCheckJob(lister, verifier, nil, metrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewIntegrityCheckTask(0)
	require.NoError(t, err)

	assert.NoError(t, job.Handle(context.Background(), task))
	lister.AssertExpectations(t)
	verifier.AssertExpectations(t)
}

func TestIntegrityCheck_DriftFailsTaskButChecksEveryPeriod(t *testing.T) {
	periods := testPeriods()
	lister := new(MockPeriodLister)
	verifier := new(MockVerifier)
	lister.On("ListPeriods", mock.Anything, 2024).Return(periods, nil)
	drift := &apperrors.ConsistencyError{FiscalYear: 2024, FiscalPeriod: 1, Message: "drift"}
	verifier.On("VerifyPeriod", mock.Anything, periods[0]).Return(nil, drift).Once()
	verifier.On("VerifyPeriod", mock.Anything, periods[1]).Return(&domain.TrialBalance{IsBalanced: true}, nil).Once()

	job := NewIntegrityCheckJob(lister, verifier, nil, nil)
	task, err := NewIntegrityCheckTask(2024)
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	var cErr *apperrors.ConsistencyError
	assert.True(t, errors.As(err, &cErr))
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	verifier.AssertExpectations(t)
}

func TestIntegrityCheck_StoreErrorStopsRun(t *testing.T) {
	periods := testPeriods()
	lister := new(MockPeriodLister)
	verifier := new(MockVerifier)
	lister.On("ListPeriods", mock.Anything, 0).Return(periods, nil)
	storeErr := errors.New("connection reset")
	verifier.On("VerifyPeriod", mock.Anything, periods[0]).Return(nil, storeErr).Once()

	job := NewIntegrityCheckJob(lister, verifier, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskIntegrityCheck, nil))

	assert.ErrorIs(t, err, storeErr)
	verifier.AssertNotCalled(t, "VerifyPeriod", mock.Anything, periods[1])
}

func TestIntegrityCheck_BadPayloadSkipsRetry(t *testing.T) {
	job := NewIntegrityCheckJob(new(MockPeriodLister), new(MockVerifier), nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskIntegrityCheck, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTrialBalanceRefresh_Computes(t *testing.T) {
	computer := new(MockComputer)
	computer.On("ComputeTrialBalance", mock.Anything, 2024, 3).Return(&domain.TrialBalance{FiscalYear: 2024, FiscalPeriod: 3, IsBalanced: true}, nil).Once()

	job := NewTrialBalanceRefreshJob(computer, nil, metrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewTrialBalanceRefreshTask(domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3})
	require.NoError(t, err)

	assert.NoError(t, job.Handle(context.Background(), task))
	computer.AssertExpectations(t)
}

func TestTrialBalanceRefresh_InvalidPeriodSkipsRetry(t *testing.T) {
	computer := new(MockComputer)
	job := NewTrialBalanceRefreshJob(computer, nil, nil)

	body, err := json.Marshal(TrialBalanceRefreshPayload{FiscalYear: 2024, FiscalPeriod: 13})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(TaskTrialBalanceRefresh, body))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	computer.AssertNotCalled(t, "ComputeTrialBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrialBalanceRefresh_ConsistencyErrorSkipsRetry(t *testing.T) {
	computer := new(MockComputer)
	cErr := &apperrors.ConsistencyError{FiscalYear: 2024, FiscalPeriod: 3, Message: "does not foot"}
	computer.On("ComputeTrialBalance", mock.Anything, 2024, 3).Return(nil, cErr).Once()

	job := NewTrialBalanceRefreshJob(computer, nil, nil)
	task, err := NewTrialBalanceRefreshTask(domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, apperrors.ErrConsistency)
}

func TestTrialBalanceRefresh_TransientErrorRetries(t *testing.T) {
	computer := new(MockComputer)
	computer.On("ComputeTrialBalance", mock.Anything, 2024, 3).Return(nil, context.DeadlineExceeded).Once()

	job := NewTrialBalanceRefreshJob(computer, nil, nil)
	task, err := NewTrialBalanceRefreshTask(domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestNewTrialBalanceRefreshTask_RejectsBadKey(t *testing.T) {
	_, err := NewTrialBalanceRefreshTask(domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 0})
	assert.Error(t, err)
}

func TestClient_EnqueueTrialBalanceRefreshDeduplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}

	require.NoError(t, client.EnqueueTrialBalanceRefresh(ctx, key))
	require.NoError(t, client.EnqueueTrialBalanceRefresh(ctx, key))

	pending, err := mr.List("asynq:{" + QueueDefault + "}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestNewWorker_RequiresRedis(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	assert.Error(t, err)
}
