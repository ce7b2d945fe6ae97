package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"touille/internal/core/recipe"
	"touille/internal/infrastructure/config"
	"touille/internal/pkg/common"
)

// RedisCache 多個實例共用的 Redis 快取
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis 連線 Redis 並確認可用
func NewRedis(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrapf(err, "redis: connect %s", cfg.RedisAddr)
	}

	common.LogInfo("快取管理員已初始化",
		zap.String("類型", "redis"),
		zap.String("addr", cfg.RedisAddr),
		zap.Duration("存活時間", cfg.TTL),
	)

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

// Get 獲取緩存
func (s *RedisCache) Get(ctx context.Context, key string) (*recipe.Record, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			common.LogCacheMiss("redis", key)
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "redis: get")
	}

	var rec recipe.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, eris.Wrap(err, "redis: unmarshal record")
	}

	s.hits.Add(1)
	common.LogCacheHit("redis", key)
	return &rec, true, nil
}

// Set 設置緩存
func (s *RedisCache) Set(ctx context.Context, key string, rec *recipe.Record) error {
	if rec == nil {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "redis: marshal record")
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return eris.Wrap(err, "redis: set")
	}
	return nil
}

// Delete 移除緩存
func (s *RedisCache) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return eris.Wrap(err, "redis: delete")
	}
	return nil
}

// Stats 獲取緩存統計信息
func (s *RedisCache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"driver": "redis",
		"hits":   s.hits.Load(),
		"misses": s.misses.Load(),
	}
}

// Close 關閉連線
func (s *RedisCache) Close() error {
	return s.client.Close()
}
