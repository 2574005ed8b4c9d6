package locks

import (
	"context"
	"sync"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	"golang.org/x/sync/semaphore"
)

// maxPeriodReaders bounds concurrent posts holding one period's shared lock.
// A writer acquires the full weight.
const maxPeriodReaders int64 = 1 << 20

// Manager provides the in-process entry and period gates.
// Waiting honours context cancellation.
type Manager struct {
	entries *keyedSemaphore
	periods *keyedSemaphore
}

// NewManager creates an in-process lock manager.
func NewManager() *Manager {
	return &Manager{
		entries: newKeyedSemaphore(1),
		periods: newKeyedSemaphore(maxPeriodReaders),
	}
}

var _ ports.PostingLocker = (*Manager)(nil)

// LockEntry takes the exclusive per-entry lock.
func (m *Manager) LockEntry(ctx context.Context, entryID string) (func(), error) {
	return m.entries.acquire(ctx, entryID, 1)
}

// RLockPeriod takes a shared lock on a period.
func (m *Manager) RLockPeriod(ctx context.Context, key domain.PeriodKey) (func(), error) {
	return m.periods.acquire(ctx, key.String(), 1)
}

// LockPeriod takes the exclusive lock on a period. Because semaphore waiters are served
// in order, a waiting writer holds back readers that arrive after it.
func (m *Manager) LockPeriod(ctx context.Context, key domain.PeriodKey) (func(), error) {
	return m.periods.acquire(ctx, key.String(), maxPeriodReaders)
}

// keyedSemaphore hands out one weighted semaphore per key and drops it once unused.
type keyedSemaphore struct {
	mu     sync.Mutex
	weight int64
	sems   map[string]*refSemaphore
}

type refSemaphore struct {
	sem  *semaphore.Weighted
	refs int
}

func newKeyedSemaphore(weight int64) *keyedSemaphore {
	return &keyedSemaphore{weight: weight, sems: make(map[string]*refSemaphore)}
}

func (k *keyedSemaphore) acquire(ctx context.Context, key string, n int64) (func(), error) {
	k.mu.Lock()
	rs, ok := k.sems[key]
	if !ok {
		rs = &refSemaphore{sem: semaphore.NewWeighted(k.weight)}
		k.sems[key] = rs
	}
	rs.refs++
	k.mu.Unlock()

	if err := rs.sem.Acquire(ctx, n); err != nil {
		k.unref(key)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rs.sem.Release(n)
			k.unref(key)
		})
	}, nil
}

func (k *keyedSemaphore) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	rs := k.sems[key]
	rs.refs--
	if rs.refs == 0 {
		delete(k.sems, key)
	}
}

// size reports how many keys are currently tracked.
func (k *keyedSemaphore) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.sems)
}
