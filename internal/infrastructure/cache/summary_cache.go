package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sangkips/billing-core/internal/domain/entity"
)

// SummaryCache holds the latest BillsSummary per account
type SummaryCache interface {
	// Get returns false when the account has no cached summary
	Get(ctx context.Context, account entity.AccountRef) (*entity.BillsSummary, bool, error)
	Set(ctx context.Context, account entity.AccountRef, summary entity.BillsSummary) error
	Delete(ctx context.Context, account entity.AccountRef) error
}

func summaryKey(account entity.AccountRef) string {
	return account.Key() + ":summary"
}

type redisSummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSummaryCache stores summaries as JSON values with a ttl
func NewRedisSummaryCache(rdb *redis.Client, ttl time.Duration) SummaryCache {
	return &redisSummaryCache{rdb: rdb, ttl: ttl}
}

func (c *redisSummaryCache) Get(ctx context.Context, account entity.AccountRef) (*entity.BillsSummary, bool, error) {
	val, err := c.rdb.Get(ctx, summaryKey(account)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var summary entity.BillsSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *redisSummaryCache) Set(ctx context.Context, account entity.AccountRef, summary entity.BillsSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, summaryKey(account), data, c.ttl).Err()
}

func (c *redisSummaryCache) Delete(ctx context.Context, account entity.AccountRef) error {
	return c.rdb.Del(ctx, summaryKey(account)).Err()
}

type noopSummaryCache struct{}

// NewNoopSummaryCache is used when redis is not configured; every Get misses
func NewNoopSummaryCache() SummaryCache {
	return noopSummaryCache{}
}

func (noopSummaryCache) Get(context.Context, entity.AccountRef) (*entity.BillsSummary, bool, error) {
	return nil, false, nil
}

func (noopSummaryCache) Set(context.Context, entity.AccountRef, entity.BillsSummary) error {
	return nil
}

func (noopSummaryCache) Delete(context.Context, entity.AccountRef) error {
	return nil
}
