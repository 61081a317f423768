package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	cache, err := NewMemoryCache(Config{DefaultTTL: 2 * time.Second, CleanupInterval: time.Second})
	require.NoError(t, err)

	require.NoError(t, cache.Set("download:run-1", "file-1", 0))
	val, found, err := cache.Get("download:run-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "file-1", val)

	val, found, err = cache.Get("download:missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	require.NoError(t, cache.Set("expire-soon", "x", 200*time.Millisecond))
	time.Sleep(400 * time.Millisecond)
	_, found, _ = cache.Get("expire-soon")
	assert.False(t, found, "entry must expire")

	require.NoError(t, cache.Delete("download:run-1"))
	_, found, _ = cache.Get("download:run-1")
	assert.False(t, found)

	require.NoError(t, cache.Set("k", "v", 0))
	require.NoError(t, cache.Clear())
	_, found, _ = cache.Get("k")
	assert.False(t, found)
}

func newRedisCache(t *testing.T, prefix string) (*miniredis.Miniredis, Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := NewCache(Config{
		Type:       "redis",
		RedisAddr:  mr.Addr(),
		KeyPrefix:  prefix,
		DefaultTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { cache.(*RedisCache).Close() })
	return mr, cache
}

func TestRedisCache(t *testing.T) {
	mr, cache := newRedisCache(t, "contracts")

	require.NoError(t, cache.Set("download:run-1", "file-1", 0))
	assert.True(t, mr.Exists("contracts:download:run-1"), "keys are prefixed")
	assert.Equal(t, time.Minute, mr.TTL("contracts:download:run-1"), "zero ttl uses the default")

	val, found, err := cache.Get("download:run-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "file-1", val)

	_, found, err = cache.Get("download:missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set("short", "x", time.Second))
	mr.FastForward(2 * time.Second)
	_, found, _ = cache.Get("short")
	assert.False(t, found)

	require.NoError(t, cache.Delete("download:run-1"))
	_, found, _ = cache.Get("download:run-1")
	assert.False(t, found)
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	mr, cache := newRedisCache(t, "contracts")
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, cache.Set("a", "1", 0))
	require.NoError(t, cache.Set("b", "2", 0))
	require.NoError(t, cache.Clear())

	assert.False(t, mr.Exists("contracts:a"))
	assert.False(t, mr.Exists("contracts:b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewCache(Config{Type: "redis", RedisAddr: addr})
	assert.Error(t, err)
}

func TestMemoryCache_KeyPrefix(t *testing.T) {
	store := gocache.New(time.Minute, time.Minute)
	c := newMemoryCache(store, "contracts")

	require.NoError(t, c.Set("download:run-1", "file-1", 0))
	store.Set("other:key", "x", gocache.NoExpiration)

	_, found := store.Get("contracts:download:run-1")
	assert.True(t, found, "keys are stored under the prefix")

	require.NoError(t, c.Clear())
	_, found, _ = c.Get("download:run-1")
	assert.False(t, found)
	_, found = store.Get("other:key")
	assert.True(t, found, "clear leaves foreign keys alone")
}

func TestCacheFactory(t *testing.T) {
	c, err := NewCache(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = NewCache(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = NewCache(Config{Type: "memcached"})
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "prefix", GenerateCacheKey("prefix"))
	assert.Equal(t, "prefix:part1", GenerateCacheKey("prefix", "part1"))
	assert.Equal(t, "prefix:part1:part2:part3", GenerateCacheKey("prefix", "part1", "part2", "part3"))
}
