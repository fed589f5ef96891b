package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/userassets/internal/model"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFromClient(client, time.Minute), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	in := &model.Asset{OwnerID: 3, Name: "theme", Value: "dark", Type: model.TypeString,
		Category: model.CategoryPreferences, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, c.SetAsset(ctx, in))

	assert.True(t, mr.Exists("assets:3:theme"))
	assert.Equal(t, time.Minute, mr.TTL("assets:3:theme"))

	out, err := c.GetAsset(ctx, 3, "theme")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)
	_, err := c.GetAsset(context.Background(), 1, "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.SetAsset(ctx, &model.Asset{OwnerID: 1, Name: "bio"}))

	mr.FastForward(2 * time.Minute)
	_, err := c.GetAsset(ctx, 1, "bio")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_DeleteOwner(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	for _, a := range []*model.Asset{
		{OwnerID: 1, Name: "email"},
		{OwnerID: 1, Name: "theme"},
		{OwnerID: 12, Name: "email"},
	} {
		require.NoError(t, c.SetAsset(ctx, a))
	}

	require.NoError(t, c.DeleteOwner(ctx, 1))
	assert.False(t, mr.Exists("assets:1:email"))
	assert.False(t, mr.Exists("assets:1:theme"))
	assert.True(t, mr.Exists("assets:12:email"), "prefix must not match other owners")

	require.NoError(t, c.DeleteOwner(ctx, 99))
}

func TestRedisCache_DeleteAsset(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, c.SetAsset(ctx, &model.Asset{OwnerID: 1, Name: "email"}))
	require.NoError(t, c.DeleteAsset(ctx, 1, "email"))
	assert.False(t, mr.Exists("assets:1:email"))
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), "not a url", 0)
	assert.Error(t, err)
}

func TestNew_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), "redis://"+mr.Addr(), 0)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.NoError(t, c.Ping(context.Background()))
}
