package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SG-STD/ofox-backend/internal/config"
)

type Limiter interface {
	Admit(ctx context.Context, key string) (bool, error)
}

// Keyed keeps one in-memory window per key, so each client of this
// process has its own budget.
type Keyed struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	windows   map[string]*Window
	lastSweep time.Time
}

func NewKeyed(limit int, window time.Duration, now func() time.Time) *Keyed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Keyed{limit: limit, window: window, now: now, windows: make(map[string]*Window)}
}

func (l *Keyed) Admit(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		for k, w := range l.windows {
			if w.idle(now) {
				delete(l.windows, k)
			}
		}
		l.lastSweep = now
	}
	w, ok := l.windows[key]
	if !ok {
		w = NewWindow(l.limit, l.window, l.now)
		l.windows[key] = w
	}
	l.mu.Unlock()

	return w.Admit(), nil
}

// Global shares one window across every caller of the owning handler;
// the key is ignored.
type Global struct {
	window *Window
}

func NewGlobal(limit int, window time.Duration, now func() time.Time) *Global {
	return &Global{window: NewWindow(limit, window, now)}
}

func (l *Global) Admit(_ context.Context, _ string) (bool, error) {
	return l.window.Admit(), nil
}

var slidingScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = ARGV[1]
	local cutoff_ms = ARGV[2]
	local window_ms = ARGV[3]
	local limit = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', '(' .. cutoff_ms)
	local count = redis.call('ZCARD', key)
	if count >= limit then
		return 0
	end
	redis.call('ZADD', key, now_ms, member)
	redis.call('PEXPIRE', key, window_ms)
	return 1
`)

// Redis keeps one sliding window per key in a sorted set so that every
// API process shares the same budget.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration, now func() time.Time) *Redis {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Redis{client: client, prefix: prefix, limit: limit, window: window, now: now}
}

func (l *Redis) Admit(ctx context.Context, key string) (bool, error) {
	now := l.now()
	args := []interface{}{
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.window.Milliseconds(),
		l.limit,
		strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString(),
	}
	res, err := slidingScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit script: %w", err)
	}
	return res == 1, nil
}

// New builds the limiter selected by cfg.Scope. Each call returns an
// independent limiter; handlers own one each.
func New(cfg config.RateLimitConfig, client *redis.Client, name string) Limiter {
	switch {
	case cfg.Scope == config.RateLimitRedis && client != nil:
		return NewRedis(client, cfg.Prefix+":"+name, cfg.Limit, cfg.Window, nil)
	case cfg.Scope == config.RateLimitGlobal:
		return NewGlobal(cfg.Limit, cfg.Window, nil)
	default:
		return NewKeyed(cfg.Limit, cfg.Window, nil)
	}
}
