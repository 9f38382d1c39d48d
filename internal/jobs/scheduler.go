package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/queue"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, fields map[string]any) error
}

type Schedule struct {
	PurgePending  string
	PruneSessions string
}

type Scheduler struct {
	cron     *cron.Cron
	queue    Enqueuer
	schedule Schedule
	log      zerolog.Logger
}

func NewScheduler(queue Enqueuer, schedule Schedule, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		queue:    queue,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule.PurgePending, s.enqueue(queue.TaskPurgePending)); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.schedule.PruneSessions, s.enqueue(queue.TaskPruneSessions)); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits up to timeout for running jobs.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueue(taskType string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.queue.Enqueue(ctx, taskType, map[string]any{"scheduled_at": time.Now().UTC().Format(time.RFC3339)}); err != nil {
			s.log.Error().Err(err).Str("task", taskType).Msg("enqueue scheduled task failed")
		}
	}
}
