package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every ledger task is enqueued on.
	QueueDefault = "default"
	// TaskIntegrityCheck recomputes trial balances and reports ledger drift.
	TaskIntegrityCheck = "ledger:integrity_check"
	// TaskTrialBalanceRefresh recomputes and re-caches one period's trial balance.
	TaskTrialBalanceRefresh = "ledger:trial_balance_refresh"
)

// IntegrityCheckPayload scopes an integrity run. FiscalYear 0 checks every year.
type IntegrityCheckPayload struct {
	FiscalYear int `json:"fiscal_year"`
}

// TrialBalanceRefreshPayload names the period to refresh.
type TrialBalanceRefreshPayload struct {
	FiscalYear   int `json:"fiscal_year"`
	FiscalPeriod int `json:"fiscal_period"`
}

func (p TrialBalanceRefreshPayload) key() domain.PeriodKey {
	return domain.PeriodKey{FiscalYear: p.FiscalYear, PeriodNumber: p.FiscalPeriod}
}

func (p TrialBalanceRefreshPayload) validate() error {
	if p.FiscalYear <= 0 {
		return fmt.Errorf("fiscal year must be positive, got %d", p.FiscalYear)
	}
	if p.FiscalPeriod < 1 || p.FiscalPeriod > 12 {
		return fmt.Errorf("fiscal period %d is outside 1-12", p.FiscalPeriod)
	}
	return nil
}

// NewIntegrityCheckTask creates an Asynq task for the ledger integrity check.
func NewIntegrityCheckTask(fiscalYear int) (*asynq.Task, error) {
	body, err := json.Marshal(IntegrityCheckPayload{FiscalYear: fiscalYear})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntegrityCheck, body, asynq.Queue(QueueDefault)), nil
}

// NewTrialBalanceRefreshTask creates an Asynq task refreshing the trial balance of key.
func NewTrialBalanceRefreshTask(key domain.PeriodKey) (*asynq.Task, error) {
	payload := TrialBalanceRefreshPayload{FiscalYear: key.FiscalYear, FiscalPeriod: key.PeriodNumber}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrialBalanceRefresh, body, asynq.Queue(QueueDefault)), nil
}
