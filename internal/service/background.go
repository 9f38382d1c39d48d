package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Background runs fire-and-forget writes. Failures are logged and never
// reach the caller. Wait blocks until every started job has finished.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
	log     zerolog.Logger
}

func NewBackground(timeout time.Duration, log zerolog.Logger) *Background {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Background{timeout: timeout, log: log}
}

// Go detaches fn from ctx cancellation but keeps its values.
func (b *Background) Go(ctx context.Context, op string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			b.log.Warn().Err(err).Str("op", op).Msg("background write failed")
		}
	}()
}

func (b *Background) Wait() {
	b.wg.Wait()
}
