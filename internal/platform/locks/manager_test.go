package locks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockEntryIsExclusive(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.LockEntry(ctx, "entry-1")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, m.entries.size(), "unused keys are dropped")
}

func TestManager_DifferentEntriesDoNotBlock(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	r1, err := m.LockEntry(ctx, "a")
	require.NoError(t, err)
	defer r1()

	ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	r2, err := m.LockEntry(ctx2, "b")
	require.NoError(t, err)
	r2()
}

func TestManager_LockEntryHonoursCancellation(t *testing.T) {
	m := NewManager()
	release, err := m.LockEntry(context.Background(), "entry-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.LockEntry(ctx, "entry-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_ReleaseIsIdempotent(t *testing.T) {
	m := NewManager()
	release, err := m.LockEntry(context.Background(), "entry-1")
	require.NoError(t, err)
	release()
	release()

	again, err := m.LockEntry(context.Background(), "entry-1")
	require.NoError(t, err)
	again()
}

func TestManager_PeriodReadersShare(t *testing.T) {
	m := NewManager()
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}

	r1, err := m.RLockPeriod(context.Background(), key)
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	r2, err := m.RLockPeriod(ctx, key)
	require.NoError(t, err)
	r2()
}

func TestManager_PeriodWriterWaitsForReaders(t *testing.T) {
	m := NewManager()
	key := domain.PeriodKey{FiscalYear: 2024, PeriodNumber: 3}

	reader, err := m.RLockPeriod(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.LockPeriod(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	reader()
	writer, err := m.LockPeriod(context.Background(), key)
	require.NoError(t, err)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	_, err = m.RLockPeriod(ctx2, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "readers wait while a writer holds the period")
	writer()
}
