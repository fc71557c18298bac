package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JeffersonLab/rfClassifier/internal/cache"
	"github.com/JeffersonLab/rfClassifier/internal/config"
)

// setupRedis spins up a Redis container and returns its URL.
func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return "redis://" + host + ":" + port.Port()
}

func newCache(t *testing.T, url, namespace string) *cache.RedisCache {
	t.Helper()
	rc, err := cache.NewRedisCache(config.RedisConfig{URL: url, Namespace: namespace})
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })
	return rc
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisCache(config.RedisConfig{URL: "localhost:6379"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis URL")
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := newCache(t, setupRedis(t), "test")
	ctx := context.Background()
	require.NoError(t, rc.Ping(ctx))

	key := cache.ModeKey("history", "1L25", 3, time.Date(2023, 2, 1, 21, 0, 26, 1e8, time.UTC))
	require.NoError(t, rc.Set(ctx, key, []byte("4"), 10*time.Second))

	val, found, err := rc.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("4"), val)

	require.NoError(t, rc.Delete(ctx, key))
	val, found, err = rc.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	assert.NoError(t, rc.Delete(ctx, "mode:never:set"))
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := newCache(t, setupRedis(t), "test")
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "expiry:key", []byte("64"), time.Second))
	_, found, err := rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(1500 * time.Millisecond)

	_, found, err = rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_IncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := newCache(t, setupRedis(t), "test")
	ctx := context.Background()
	key := cache.RateLimitKey("rfc_" + uuid.NewString()[:4])

	for want := int64(1); want <= 3; want++ {
		val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, val)
	}

	short := cache.RateLimitKey("rfc_" + uuid.NewString()[:4])
	_, err := rc.IncrWithExpiry(ctx, short, time.Second)
	require.NoError(t, err)
	time.Sleep(1500 * time.Millisecond)

	val, err := rc.IncrWithExpiry(ctx, short, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val, "counter restarts after expiry")
}

func TestRedisCache_IncrWithExpiry_FixedWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := newCache(t, setupRedis(t), "test")
	ctx := context.Background()
	key := cache.RateLimitKey("rfc_" + uuid.NewString()[:4])

	_, err := rc.IncrWithExpiry(ctx, key, time.Second)
	require.NoError(t, err)
	time.Sleep(600 * time.Millisecond)
	_, err = rc.IncrWithExpiry(ctx, key, time.Second)
	require.NoError(t, err)
	time.Sleep(600 * time.Millisecond)

	val, err := rc.IncrWithExpiry(ctx, key, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val, "later increments must not extend the window")
}

func TestRedisCache_NamespacesAreIsolated(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := setupRedis(t)
	a := newCache(t, url, "site-a")
	b := newCache(t, url, "site-b")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "shared", []byte("4"), time.Minute))

	_, found, err := b.Get(ctx, "shared")
	require.NoError(t, err)
	assert.False(t, found)

	val, found, err := a.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("4"), val)
}

// --- Key builders ---

func TestModeKey(t *testing.T) {
	at := time.Date(2023, 2, 1, 21, 0, 26, 100_000_000, time.UTC)
	assert.Equal(t, "mode:ops:1L25:6:1675285226100000000", cache.ModeKey("ops", "1L25", 6, at))
}

func TestModeKey_DistinguishesEveryField(t *testing.T) {
	at := time.Date(2023, 2, 1, 21, 0, 26, 0, time.UTC)
	keys := []string{
		cache.ModeKey("ops", "1L25", 6, at),
		cache.ModeKey("history", "1L25", 6, at),
		cache.ModeKey("ops", "1L26", 6, at),
		cache.ModeKey("ops", "1L25", 7, at),
		cache.ModeKey("ops", "1L25", 6, at.Add(100*time.Millisecond)),
		cache.RateLimitKey("rfc_abcd"),
	}
	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:rfc_abcd", cache.RateLimitKey("rfc_abcd"))
}
