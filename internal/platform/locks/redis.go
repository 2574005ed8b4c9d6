package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is logged when a release finds the lock already expired or taken over.
var ErrLockNotHeld = errors.New("lock was not held or already expired")

// RedisOptions tune the distributed entry lock.
type RedisOptions struct {
	Prefix     string
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultRedisOptions returns settings suited to posting: long enough to cover a store
// transaction, retried for a few seconds before giving up.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Prefix:     "ledger:lock:entry:",
		Expiry:     30 * time.Second,
		Tries:      40,
		RetryDelay: 100 * time.Millisecond,
	}
}

// RedisEntryLocker takes the per-entry posting lock in Redis so that several API
// instances exclude each other. Period gates stay process-local; across instances
// they are backed by the store's row locks.
type RedisEntryLocker struct {
	rs     *redsync.Redsync
	local  *Manager
	opts   RedisOptions
	logger *slog.Logger
}

// NewRedisEntryLocker builds a locker over an existing go-redis client. Release failures
// are reported on logger.
func NewRedisEntryLocker(client redis.UniversalClient, local *Manager, opts RedisOptions, logger *slog.Logger) *RedisEntryLocker {
	if local == nil {
		local = NewManager()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisEntryLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		local:  local,
		opts:   opts,
		logger: logger,
	}
}

var _ ports.PostingLocker = (*RedisEntryLocker)(nil)

// LockEntry acquires the distributed lock for an entry.
func (l *RedisEntryLocker) LockEntry(ctx context.Context, entryID string) (func(), error) {
	key := l.opts.Prefix + entryID
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	logger := l.logger.With(slog.String("entry_id", entryID))
	return func() {
		// The caller's context may already be done; release with a fresh bound.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ok, err := mutex.UnlockContext(unlockCtx)
		if err != nil {
			logger.Error("failed to release lock", slog.String("lock_key", key), slog.String("error", err.Error()))
			return
		}
		if !ok {
			logger.Warn("failed to release lock", slog.String("lock_key", key), slog.String("error", ErrLockNotHeld.Error()))
		}
	}, nil
}

// RLockPeriod delegates to the in-process manager.
func (l *RedisEntryLocker) RLockPeriod(ctx context.Context, key domain.PeriodKey) (func(), error) {
	return l.local.RLockPeriod(ctx, key)
}

// LockPeriod delegates to the in-process manager.
func (l *RedisEntryLocker) LockPeriod(ctx context.Context, key domain.PeriodKey) (func(), error) {
	return l.local.LockPeriod(ctx, key)
}
