package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/phishing-awareness/internal/model"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCachedDirectory_CachesHits(t *testing.T) {
	next := newDirectory()
	d := NewCachedDirectory(next, newRedis(t), time.Minute)
	ctx := context.Background()

	c, err := d.BySlug(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, c)
	calls := next.calls

	c, err = d.BySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), c.ID)
	assert.Equal(t, calls, next.calls, "second lookup should be served from redis")
}

func TestCachedDirectory_DoesNotCacheMisses(t *testing.T) {
	next := newDirectory()
	d := NewCachedDirectory(next, newRedis(t), time.Minute)
	ctx := context.Background()

	c, err := d.BySlug(ctx, "initech")
	require.NoError(t, err)
	assert.Nil(t, c)

	next.clients = append(next.clients, &model.Client{ID: 10, Slug: "initech"})
	c, err = d.BySlug(ctx, "initech")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint64(10), c.ID)
}

func TestCachedDirectory_InvalidateDropsStaleEntry(t *testing.T) {
	next := newDirectory()
	d := NewCachedDirectory(next, newRedis(t), time.Minute)
	ctx := context.Background()

	_, err := d.BySlug(ctx, "acme")
	require.NoError(t, err)
	_, err = d.Superadmin(ctx)
	require.NoError(t, err)

	// slug moves to another client
	next.clients[2].Slug = "acme-old"
	next.clients = append(next.clients, &model.Client{ID: 20, Slug: "acme"})

	stale, err := d.BySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stale.ID)

	require.NoError(t, d.Invalidate(ctx, "acme"))
	fresh, err := d.BySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), fresh.ID)
}

func TestCachedDirectory_DisabledWithoutRedis(t *testing.T) {
	next := newDirectory()
	d := NewCachedDirectory(next, nil, time.Minute)
	ctx := context.Background()
	_, _ = d.First(ctx)
	_, _ = d.First(ctx)
	assert.Equal(t, 2, next.calls)
	assert.NoError(t, d.Invalidate(ctx, "acme"))
}
