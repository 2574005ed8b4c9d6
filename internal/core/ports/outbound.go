package ports

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// AuditSink receives every ledger state transition as an immutable fact.
// The ledger does not own the storage format.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// PostingLocker provides the entry and period gates used around posting and period transitions.
// Every acquisition honours ctx and returns a release func that must be called exactly once.
type PostingLocker interface {
	// LockEntry takes the exclusive per-entry posting lock.
	LockEntry(ctx context.Context, entryID string) (func(), error)

	// RLockPeriod takes a shared lock on the period's status; many posts may hold it at once.
	RLockPeriod(ctx context.Context, key domain.PeriodKey) (func(), error)

	// LockPeriod takes the exclusive lock needed to change the period's status.
	LockPeriod(ctx context.Context, key domain.PeriodKey) (func(), error)
}

// TrialBalanceCache keeps recently computed trial balances.
type TrialBalanceCache interface {
	Get(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalance, bool, error)

	// Generation returns a token naming the current cache generation. Take it before
	// reading ledger data and pass it to Set.
	Generation(ctx context.Context) (string, error)

	// Set stores tb under generation. Entries written under a generation that has since
	// been invalidated are never returned by Get.
	Set(ctx context.Context, generation string, tb domain.TrialBalance) error

	// Invalidate drops every cached trial balance; called after each post.
	Invalidate(ctx context.Context) error
}

// LedgerJobPublisher enqueues background ledger work.
type LedgerJobPublisher interface {
	EnqueueTrialBalanceRefresh(ctx context.Context, key domain.PeriodKey) error
}

// LedgerMetrics records posting and aggregation outcomes.
type LedgerMetrics interface {
	ObservePost(outcome string, took time.Duration)
	ObserveTrialBalance(balanced bool, took time.Duration)
	ObserveTransition(action domain.AuditAction)
}
