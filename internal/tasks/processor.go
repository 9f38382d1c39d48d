package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/crashreport"
	"github.com/SG-STD/ofox-backend/internal/queue"
)

type PendingPurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionPruner interface {
	DeleteIdle(ctx context.Context, before time.Time) (int64, error)
}

type Options struct {
	PendingRetention time.Duration
	SessionIdleTTL   time.Duration
	Now              func() time.Time
}

type Processor struct {
	reporter crashreport.Reporter
	pending  PendingPurger
	sessions SessionPruner
	opts     Options
	logger   zerolog.Logger
}

func NewProcessor(reporter crashreport.Reporter, pending PendingPurger, sessions SessionPruner, opts Options, logger zerolog.Logger) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{
		reporter: reporter,
		pending:  pending,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	values := decodePayload(msg.Values)

	switch values["type"] {
	case queue.TaskCrashReport:
		return p.handleCrashReport(ctx, values)
	case queue.TaskPurgePending:
		return p.handlePurgePending(ctx)
	case queue.TaskPruneSessions:
		return p.handlePruneSessions(ctx)
	default:
		p.logger.Warn().Str("type", values["type"]).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		switch t := v.(type) {
		case string:
			out[k] = t
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

func (p *Processor) handleCrashReport(ctx context.Context, values map[string]string) error {
	if p.reporter == nil {
		p.logger.Warn().Msg("crash report dropped, no reporter configured")
		return nil
	}
	report := crashreport.FromFields(values)
	if err := p.reporter.Report(ctx, report); err != nil {
		if errors.Is(err, crashreport.ErrDisabled) {
			p.logger.Warn().Str("error", report.Error).Msg("crash reporting disabled, report dropped")
			return nil
		}
		return fmt.Errorf("deliver crash report: %w", err)
	}
	p.logger.Info().Str("source", report.Source).Msg("crash report delivered")
	return nil
}

func (p *Processor) handlePurgePending(ctx context.Context) error {
	cutoff := p.opts.Now().Add(-p.opts.PendingRetention)
	n, err := p.pending.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge pending: %w", err)
	}
	p.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("expired pending registrations purged")
	return nil
}

func (p *Processor) handlePruneSessions(ctx context.Context) error {
	if p.opts.SessionIdleTTL <= 0 {
		return nil
	}
	before := p.opts.Now().Add(-p.opts.SessionIdleTTL)
	n, err := p.sessions.DeleteIdle(ctx, before)
	if err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	p.logger.Info().Int64("deleted", n).Time("before", before).Msg("idle sessions pruned")
	return nil
}
