package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu   sync.Mutex
	msgs []redis.XMessage
	err  error
}

func (h *recordingHandler) Handle(_ context.Context, msg redis.XMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return h.err
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPublisher_Enqueue(t *testing.T) {
	client := newRedis(t)
	p := NewPublisher(client, "tasks")
	ctx := context.Background()

	require.NoError(t, p.Enqueue(ctx, TaskPurgePending, map[string]any{"reason": "cron"}))

	entries, err := client.XRange(ctx, "tasks", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TaskPurgePending, entries[0].Values["type"])
	assert.Equal(t, "cron", entries[0].Values["reason"])
}

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Enqueue(context.Background(), TaskCrashReport, nil))
}

func TestConsumer_ReadAcksHandled(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	handler := &recordingHandler{}
	c := NewConsumer(client, "tasks", "workers", "w1", time.Minute, zerolog.Nop(), handler)
	c.block = 10 * time.Millisecond

	require.NoError(t, c.EnsureGroup(ctx))
	require.NoError(t, c.EnsureGroup(ctx), "second call tolerates an existing group")
	require.NoError(t, NewPublisher(client, "tasks").Enqueue(ctx, TaskPruneSessions, nil))

	require.NoError(t, c.read(ctx))

	require.Len(t, handler.msgs, 1)
	assert.Equal(t, TaskPruneSessions, handler.msgs[0].Values["type"])

	pending, err := client.XPending(ctx, "tasks", "workers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestConsumer_FailedMessageStaysPending(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	handler := &recordingHandler{err: errors.New("boom")}
	c := NewConsumer(client, "tasks", "workers", "w1", time.Minute, zerolog.Nop(), handler)
	c.block = 10 * time.Millisecond

	require.NoError(t, c.EnsureGroup(ctx))
	require.NoError(t, NewPublisher(client, "tasks").Enqueue(ctx, TaskCrashReport, nil))
	require.NoError(t, c.read(ctx))

	pending, err := client.XPending(ctx, "tasks", "workers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}
