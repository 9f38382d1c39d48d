// Package ratelimit gates dispatch endpoints with a sliding admission
// window: at most Limit calls are admitted in any Window.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 60 * time.Second
)

// Window is an in-memory sliding window. It is safe for concurrent use.
type Window struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	admitted []time.Time
}

func NewWindow(limit int, window time.Duration, now func() time.Time) *Window {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Window{limit: limit, window: window, now: now}
}

// Admit drops timestamps older than the window and records the call when
// fewer than limit remain. An entry exactly one window old still counts.
func (w *Window) Admit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	keep := 0
	for keep < len(w.admitted) && w.admitted[keep].Before(cutoff) {
		keep++
	}
	w.admitted = w.admitted[keep:]

	if len(w.admitted) >= w.limit {
		return false
	}
	w.admitted = append(w.admitted, now)
	return true
}

// idle reports whether no admitted call is still inside the window.
func (w *Window) idle(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.admitted)
	return n == 0 || w.admitted[n-1].Before(now.Add(-w.window))
}
