// Package scheduler runs a task on a fixed interval, skipping a tick while
// the previous run of the same task is still in flight.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every interval.
type TickFunc func(ctx context.Context) error

// Options tune scheduler behaviour.
type Options struct {
	Name         string
	Interval     time.Duration
	StartupDelay time.Duration
	RunOnStart   bool
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Name     string    `json:"name"`
	Runs     int       `json:"runs"`
	Failures int       `json:"failures"`
	Skipped  int       `json:"skipped"`
	Running  bool      `json:"running"`
	LastRun  time.Time `json:"last_run,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
}

// Scheduler drives periodic execution of one task.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger

	// OnSkip is called when a tick is dropped; may be nil.
	OnSkip func(name string)

	mu    sync.Mutex
	stats Stats
	wg    sync.WaitGroup
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Str("task", opts.Name).Logger(),
		stats:  Stats{Name: opts.Name},
	}
}

// Run blocks, firing tick every interval until ctx is cancelled. Each tick
// runs in its own goroutine; a tick that arrives while the previous one is
// still running is dropped. Run waits for the in-flight tick before returning.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	defer s.wg.Wait()

	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.RunOnStart {
		s.fire(ctx, tick)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.fire(ctx, tick)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, tick TickFunc) {
	s.mu.Lock()
	if s.stats.Running {
		s.stats.Skipped++
		s.mu.Unlock()
		s.logger.Debug().Msg("previous run still in flight, skipping")
		if s.OnSkip != nil {
			s.OnSkip(s.opts.Name)
		}
		return
	}
	s.stats.Running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.safeTick(ctx, tick)

		s.mu.Lock()
		s.stats.Running = false
		s.stats.Runs++
		s.stats.LastRun = time.Now()
		s.stats.LastErr = ""
		if err != nil {
			s.stats.Failures++
			s.stats.LastErr = err.Error()
		}
		s.mu.Unlock()

		if err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("tick execution failed")
		}
	}()
}

// safeTick turns a panic in tick into an error so the loop keeps running.
func (s *Scheduler) safeTick(ctx context.Context, tick TickFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("tick panicked")
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	return tick(ctx)
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
