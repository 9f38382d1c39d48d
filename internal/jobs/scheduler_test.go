package jobs

import (
	"context"
	"sync"
	"time"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SG-STD/ofox-backend/internal/queue"
)

type fakeQueue struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeQueue) Enqueue(_ context.Context, taskType string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, taskType)
	return nil
}

func TestScheduler_InvalidCronExpression(t *testing.T) {
	s := NewScheduler(&fakeQueue{}, Schedule{PurgePending: "every now and then", PruneSessions: "0 0 * * * *"}, zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestScheduler_EnqueueTask(t *testing.T) {
	q := &fakeQueue{}
	s := NewScheduler(q, Schedule{PurgePending: "0 0 * * * *", PruneSessions: "0 30 3 * * *"}, zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop(time.Second)

	s.enqueue(queue.TaskPurgePending)()
	s.enqueue(queue.TaskPruneSessions)()
	assert.Equal(t, []string{queue.TaskPurgePending, queue.TaskPruneSessions}, q.types)
}
