package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache 基于 go-cache 的内存缓存实现
// 与 RedisCache 一样，键都带有配置的前缀，Clear 只删除带前缀的键
type MemoryCache struct {
	store  *gocache.Cache
	prefix string
}

// NewMemoryCache 创建内存缓存
// 未设置时默认过期时间为一天，清理间隔为十分钟
func NewMemoryCache(config Config) (Cache, error) {
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cleanup := config.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return newMemoryCache(gocache.New(ttl, cleanup), config.KeyPrefix), nil
}

func newMemoryCache(store *gocache.Cache, prefix string) *MemoryCache {
	return &MemoryCache{store: store, prefix: prefix}
}

func (m *MemoryCache) key(k string) string {
	if m.prefix == "" {
		return k
	}
	return GenerateCacheKey(m.prefix, k)
}

func (m *MemoryCache) Get(key string) (string, bool, error) {
	v, found := m.store.Get(m.key(key))
	if !found {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryCache) Set(key string, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(m.key(key), value, ttl)
	return nil
}

func (m *MemoryCache) Delete(key string) error {
	m.store.Delete(m.key(key))
	return nil
}

func (m *MemoryCache) Clear() error {
	if m.prefix == "" {
		m.store.Flush()
		return nil
	}
	owned := m.prefix + ":"
	for k := range m.store.Items() {
		if strings.HasPrefix(k, owned) {
			m.store.Delete(k)
		}
	}
	return nil
}

func init() {
	RegisterCache("memory", NewMemoryCache)
}
