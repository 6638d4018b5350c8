package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"lmp_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// ResultsCache 实时看板的短期缓存，Get 未命中时返回 nil, false
type ResultsCache interface {
	Get(ctx context.Context, subjectID uint) ([]model.RealTimePassingResult, bool)
	Set(ctx context.Context, subjectID uint, results []model.RealTimePassingResult)
}

// RedisResultsCache TTL 为 0 时不缓存
type RedisResultsCache struct {
	Redis *redis.Client
	ttl   atomic.Int64
}

func NewRedisResultsCache(rdb *redis.Client, ttl time.Duration) *RedisResultsCache {
	c := &RedisResultsCache{Redis: rdb}
	c.SetTTL(ttl)
	return c
}

func (c *RedisResultsCache) SetTTL(ttl time.Duration) {
	c.ttl.Store(int64(ttl))
}

func realtimeCacheKey(subjectID uint) string {
	return fmt.Sprintf("test_passing:realtime:%d", subjectID)
}

func (c *RedisResultsCache) Get(ctx context.Context, subjectID uint) ([]model.RealTimePassingResult, bool) {
	if c.ttl.Load() <= 0 {
		return nil, false
	}
	data, err := c.Redis.Get(ctx, realtimeCacheKey(subjectID)).Bytes()
	if err != nil {
		return nil, false
	}
	var results []model.RealTimePassingResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

// Set 失败时忽略，看板数据允许短暂不一致
func (c *RedisResultsCache) Set(ctx context.Context, subjectID uint, results []model.RealTimePassingResult) {
	ttl := time.Duration(c.ttl.Load())
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	c.Redis.Set(ctx, realtimeCacheKey(subjectID), data, ttl)
}
