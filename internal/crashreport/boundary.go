package crashreport

import (
	"context"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Boundary is the process-level failure net. It is created in main and
// handed to every goroutine that must not die silently: a panic is
// reported synchronously and the process exits.
type Boundary struct {
	app      string
	reporter Reporter
	log      zerolog.Logger
	timeout  time.Duration
	exit     func(int)
}

func NewBoundary(app string, reporter Reporter, log zerolog.Logger, timeout time.Duration) *Boundary {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Boundary{
		app:      app,
		reporter: reporter,
		log:      log,
		timeout:  timeout,
		exit:     os.Exit,
	}
}

// Recover must be deferred directly.
func (b *Boundary) Recover(goroutine string) {
	if r := recover(); r != nil {
		b.crash(goroutine, r, debug.Stack())
	}
}

// Run executes fn on the calling goroutine under the boundary.
func (b *Boundary) Run(goroutine string, fn func() error) error {
	defer b.Recover(goroutine)
	return fn()
}

// Go starts fn on a new goroutine under the boundary.
func (b *Boundary) Go(goroutine string, fn func()) {
	go func() {
		defer b.Recover(goroutine)
		fn()
	}()
}

func (b *Boundary) crash(goroutine string, recovered any, stack []byte) {
	report := Capture(b.app, goroutine, "panic", recovered, stack)
	b.log.Error().
		Str("goroutine", goroutine).
		Interface("panic", recovered).
		Bytes("stack", stack).
		Msg("unhandled panic, terminating")

	if b.reporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if err := b.reporter.Report(ctx, report); err != nil {
			b.log.Error().Err(err).Msg("crash report not delivered")
		}
		cancel()
	}
	b.exit(1)
}
