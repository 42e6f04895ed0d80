package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"

func exhaust(t *testing.T, ctx context.Context, l interface {
	Allow(context.Context, string) (bool, error)
	RecordFailure(context.Context, string) error
}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, "attempt %d", i+1)
		require.NoError(t, l.RecordFailure(ctx, key))
	}
}

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, 15*time.Minute)
	l.now = func() time.Time { return now }

	exhaust(t, ctx, l, 3)
	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "other")
	assert.True(t, ok, "keys are independent")

	now = now.Add(15 * time.Minute)
	ok, _ = l.Allow(ctx, key)
	assert.True(t, ok, "window expired")

	exhaust(t, ctx, l, 3)
	require.NoError(t, l.Reset(ctx, key))
	ok, _ = l.Allow(ctx, key)
	assert.True(t, ok)
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisLimiter(rdb, 3, 15*time.Minute)

	exhaust(t, ctx, l, 3)
	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 15*time.Minute, mr.TTL("walletauth:attempts:"+key))

	mr.FastForward(15 * time.Minute)
	ok, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok, "window expired")

	exhaust(t, ctx, l, 3)
	require.NoError(t, l.Reset(ctx, key))
	ok, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterWindow(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisLimiter(rdb, 3, 15*time.Minute)
	counter := "walletauth:attempts:" + key

	require.NoError(t, l.RecordFailure(ctx, key))
	mr.FastForward(5 * time.Minute)
	require.NoError(t, l.RecordFailure(ctx, key))
	assert.Equal(t, 10*time.Minute, mr.TTL(counter), "later failures keep the window")

	// counter stranded without a TTL
	require.NoError(t, mr.Set(counter, "2"))
	require.Zero(t, mr.TTL(counter))

	require.NoError(t, l.RecordFailure(ctx, key))
	assert.Equal(t, 15*time.Minute, mr.TTL(counter))
	got, err := mr.Get(counter)
	require.NoError(t, err)
	assert.Equal(t, "3", got)
}
