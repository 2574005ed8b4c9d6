package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const (
	generationKey = "ledger:tb:gen"
	keyPrefix     = "ledger:tb"
)

// TrialBalanceCache stores computed trial balances under a global generation.
// Invalidation bumps the generation, so every snapshot from before is unreachable
// and left to expire.
type TrialBalanceCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewTrialBalanceCache instantiates the cache.
func NewTrialBalanceCache(client redis.UniversalClient, ttl time.Duration) *TrialBalanceCache {
	return &TrialBalanceCache{client: client, ttl: ttl}
}

var _ ports.TrialBalanceCache = (*TrialBalanceCache)(nil)

// Generation returns the current generation, initialising it when missing.
func (c *TrialBalanceCache) Generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so that a concurrent bump is not overwritten.
		if err := c.client.SetNX(ctx, generationKey, 1, 0).Err(); err != nil {
			return "", err
		}
		gen, err = c.client.Get(ctx, generationKey).Int64()
	}
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(gen, 10), nil
}

// Get returns the snapshot cached under the current generation.
func (c *TrialBalanceCache) Get(ctx context.Context, key domain.PeriodKey) (*domain.TrialBalance, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, false, err
	}
	payload, err := c.client.Get(ctx, entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tb domain.TrialBalance
	if err := json.Unmarshal(payload, &tb); err != nil {
		return nil, false, fmt.Errorf("platform/cache: decode trial balance %s: %w", key, err)
	}
	return &tb, true, nil
}

// Set stores tb under the generation observed before its inputs were read.
// A snapshot computed across an invalidation lands in an old generation and is never served.
func (c *TrialBalanceCache) Set(ctx context.Context, generation string, tb domain.TrialBalance) error {
	raw, err := json.Marshal(tb)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entryKey(generation, tb.Key()), raw, c.ttl).Err()
}

// Invalidate bumps the generation.
func (c *TrialBalanceCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

func entryKey(generation string, key domain.PeriodKey) string {
	return fmt.Sprintf("%s:%s:%d:%d", keyPrefix, generation, key.FiscalYear, key.PeriodNumber)
}
