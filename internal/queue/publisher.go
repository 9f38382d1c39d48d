package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	TaskCrashReport   = "crash_report"
	TaskPurgePending  = "purge_pending"
	TaskPruneSessions = "prune_sessions"
)

// Publisher appends tasks to the worker stream.
type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

func (p *Publisher) Enqueue(ctx context.Context, taskType string, fields map[string]any) error {
	if p == nil || p.client == nil {
		return nil
	}
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["type"] = taskType

	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result(); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
