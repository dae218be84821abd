// Package cache 读缓存，缓存已经过去的日期的链上读结果
// Package cache read cache for chain reads of days that are already over
package cache

import (
	"context"
	"time"

	"github.com/haierkeys/onchain-diary-service/pkg/util"

	"github.com/pkg/errors"
)

const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Cache key-value read cache
// Cache 键值读缓存
type Cache interface {
	// Get returns (nil, false, nil) on a miss
	// Get 未命中时返回 (nil, false, nil)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set ttl <= 0 means no expiry
	// Set ttl <= 0 表示不过期
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config cache configuration
// Config 缓存配置
type Config struct {
	Type      string `yaml:"type" default:"memory"`
	RedisURL  string `yaml:"redis-url" default:"redis://localhost:6379/0"`
	KeyPrefix string `yaml:"key-prefix" default:"diary:"`
	TTL       string `yaml:"ttl" default:"24h"`
	// MaxEntries memory cache capacity
	// MaxEntries 内存缓存容量
	MaxEntries int `yaml:"max-entries" default:"10000"`
}

// New creates the cache configured by cfg.Type
// New 按 cfg.Type 创建缓存
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return NewMemory(cfg.MaxEntries, util.MustParseDuration(cfg.TTL, 0)), nil
	case TypeRedis:
		return NewRedis(ctx, cfg.RedisURL, cfg.KeyPrefix)
	}
	return nil, errors.Errorf("unsupported cache type %q", cfg.Type)
}
