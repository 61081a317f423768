// Package cache 缓存短期有效的字符串值，例如下载凭证
package cache

import (
	"fmt"
	"strings"
	"time"
)

// Cache 带过期时间的缓存接口
type Cache interface {
	Get(key string) (value string, found bool, err error)
	// Set 设置缓存，ttl为0时使用默认过期时间
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	// Clear 清除本缓存的所有键
	Clear() error
}

// Factory 缓存工厂函数
type Factory func(config Config) (Cache, error)

var registry = make(map[string]Factory)

// RegisterCache 注册缓存实现
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache 根据 config.Type 创建缓存，类型为空时使用内存缓存
func NewCache(config Config) (Cache, error) {
	if config.Type == "" {
		config.Type = "memory"
	}
	factory, ok := registry[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
	return factory(config)
}

// Config 缓存配置
type Config struct {
	Type string // "memory" 或 "redis"

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// KeyPrefix 键前缀，两种实现都会使用
	KeyPrefix string

	DefaultTTL      time.Duration
	CleanupInterval time.Duration // 仅内存缓存使用
}

// DefaultConfig 返回默认配置：内存缓存，条目保留一天
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		KeyPrefix:       "contracts",
		DefaultTTL:      24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// GenerateCacheKey 用 ":" 连接前缀和各部分生成缓存键
func GenerateCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}
