// Package loop runs work serially on one owning goroutine.
//
// Each execution context (server, client) owns a Loop, and the bus for that
// context is only touched from the loop's goroutine. Producers elsewhere
// hand their broadcasts to the loop with Submit or Do.
package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/panics"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

// DefaultQueueSize is the task buffer size used when none is configured.
const DefaultQueueSize = 256

// TickFunc is invoked on the loop goroutine once per tick interval. n counts
// ticks from 1.
type TickFunc func(n uint64)

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Loop executes submitted tasks one at a time on the goroutine that calls Run.
type Loop struct {
	name      string
	logger    *logging.Logger
	queueSize int
	interval  time.Duration
	onTick    TickFunc

	tasks chan func()
	done  chan struct{}

	mu    sync.Mutex
	state state
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger for recovered task panics.
func WithLogger(l *logging.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithQueueSize sets how many tasks may wait before Submit reports ErrLoopFull.
func WithQueueSize(n int) Option {
	return func(lp *Loop) {
		if n > 0 {
			lp.queueSize = n
		}
	}
}

// WithTick calls fn on the loop goroutine every interval.
func WithTick(interval time.Duration, fn TickFunc) Option {
	return func(lp *Loop) {
		lp.interval = interval
		lp.onTick = fn
	}
}

// New creates a Loop. It does nothing until Run is called, but tasks may be
// submitted beforehand and run in order once it starts.
func New(name string, opts ...Option) *Loop {
	l := &Loop{
		name:      name,
		logger:    logging.NopLogger(),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("loop", name)
	l.tasks = make(chan func(), l.queueSize)
	l.done = make(chan struct{})
	return l
}

// Name returns the loop name.
func (l *Loop) Name() string {
	return l.name
}

// Run executes tasks and ticks until ctx is cancelled. It returns nil on
// cancellation and ErrLoopRunning if the loop has already been run. Tasks
// still queued when Run returns are discarded.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.state != stateIdle {
		l.mu.Unlock()
		return errs.ErrLoopRunning
	}
	l.state = stateRunning
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.state = stateStopped
		l.mu.Unlock()
		close(l.done)
	}()

	var tick <-chan time.Time
	if l.onTick != nil && l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	l.logger.Debug("loop started", "queue_size", l.queueSize, "tick_interval", l.interval.String())

	var n uint64
	for {
		// Cancellation wins over pending work.
		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopped", "dropped", len(l.tasks))
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopped", "dropped", len(l.tasks))
			return nil
		case task := <-l.tasks:
			l.safeRun("task", task)
		case <-tick:
			n++
			tickN := n
			l.safeRun("tick", func() { l.onTick(tickN) })
		}
	}
}

// safeRun executes fn, logging and swallowing any panic.
func (l *Loop) safeRun(what string, fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		l.logger.Error("loop "+what+" panicked",
			"panic", fmt.Sprint(r.Value),
			"stack", string(r.Stack))
	}
}

// Submit queues fn to run on the loop goroutine and returns immediately.
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return errs.NewValidationError("task cannot be nil").WithField("fn")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == stateStopped {
		return errs.ErrLoopStopped
	}
	select {
	case l.tasks <- fn:
		return nil
	default:
		l.logger.Warn("loop queue full, task dropped", "queue_size", l.queueSize)
		return errs.ErrLoopFull
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. It returns
// fn's error, an error wrapping ErrTaskPanic if fn panicked, ErrLoopStopped
// if the loop exits first, or ctx's error if ctx is done first. When ctx
// ends first fn may still run later.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	if fn == nil {
		return errs.NewValidationError("task cannot be nil").WithField("fn")
	}
	result := make(chan error, 1)
	err := l.Submit(func() {
		var ferr error
		var pc panics.Catcher
		pc.Try(func() { ferr = fn() })
		if r := pc.Recovered(); r != nil {
			ferr = fmt.Errorf("%w: %v", errs.ErrTaskPanic, r.Value)
		}
		result <- ferr
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		// The task may have completed just before the loop exited.
		select {
		case err := <-result:
			return err
		default:
			return errs.ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	return len(l.tasks)
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
