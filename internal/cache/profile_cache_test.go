package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SG-STD/ofox-backend/internal/models"
)

func TestProfileCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewProfileCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	registered := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := ProfileFromUser(models.User{ID: "u1", Handle: "alice", Email: "a@x.com", RegisteredAt: registered})
	require.NoError(t, c.Set(ctx, p))

	got, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Handle)
	assert.True(t, registered.Equal(got.RegisteredAt))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires after ttl")

	require.NoError(t, c.Set(ctx, p))
	require.NoError(t, c.Invalidate(ctx, "u1"))
	_, ok, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
