// Package schedule runs the recurring-mission reset pass at startup and at
// every local midnight.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/missions/internal/hierarchy"
)

// DefaultMaxWait caps a single timer wait. A machine that slept through
// midnight catches up within this long after waking.
const DefaultMaxWait = time.Hour

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Resetter runs one reset pass over the current tree and reports how many
// items it unchecked. *hierarchy.Store implements it.
type Resetter interface {
	ResetRecurring(ctx context.Context) (int, error)
}

// Options configures [New].
type Options struct {
	// Clock defaults to RealClock.
	Clock Clock
	// Location defines midnight. Nil means time.Local.
	Location *time.Location
	// MaxWait defaults to DefaultMaxWait.
	MaxWait time.Duration
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// OnPass, if set, is called after every pass with the number of items
	// reset and the time of the next scheduled pass.
	OnPass func(reset int, next time.Time)
}

// Scheduler triggers [Resetter.ResetRecurring] on a midnight-aligned timer.
type Scheduler struct {
	resetter Resetter
	clock    Clock
	loc      *time.Location
	maxWait  time.Duration
	log      *zap.Logger
	onPass   func(int, time.Time)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped scheduler for r.
func New(r Resetter, opts Options) *Scheduler {
	if r == nil {
		panic("resetter is nil")
	}

	s := &Scheduler{
		resetter: r,
		clock:    opts.Clock,
		loc:      opts.Location,
		maxWait:  opts.MaxWait,
		log:      opts.Logger,
		onPass:   opts.OnPass,
	}

	if s.clock == nil {
		s.clock = RealClock{}
	}

	if s.loc == nil {
		s.loc = time.Local
	}

	if s.maxWait <= 0 {
		s.maxWait = DefaultMaxWait
	}

	if s.log == nil {
		s.log = zap.NewNop()
	}

	return s
}

// NextRun returns the first local midnight strictly after now.
func NextRun(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}

	return hierarchy.DateOf(now, loc).AddDays(1).Midnight(loc)
}

// RunOnce runs a single pass. Errors and panics are logged, never returned,
// so an unattended process keeps running. It returns the number of items reset.
func (s *Scheduler) RunOnce(ctx context.Context) (reset int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recurrence reset panicked", zap.Any("panic", r))

			reset = 0
		}
	}()

	n, err := s.resetter.ResetRecurring(ctx)
	if err != nil {
		s.log.Error("recurrence reset failed", zap.Int("reset", n), zap.Error(err))

		return n
	}

	if n > 0 {
		s.log.Info("recurring daily missions reset", zap.Int("reset", n))
	} else {
		s.log.Debug("recurrence reset found nothing due")
	}

	return n
}

// Start runs a pass immediately, then keeps passing at every local midnight
// until ctx is done or Stop is called. Each pass reads the store's current
// tree, so mutations made between passes are always seen.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	reset := s.RunOnce(ctx)
	s.notify(reset, NextRun(s.clock.Now(), s.loc))

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.cancel = cancel
	s.done = done

	go s.loop(loopCtx, done)

	return nil
}

// Stop cancels the outstanding timer and waits for the loop to exit.
// It is safe to call on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	next := NextRun(s.clock.Now(), s.loc)

	for {
		wait := min(next.Sub(s.clock.Now()), s.maxWait)

		s.log.Debug("recurrence reset armed",
			zap.Time("next", next),
			zap.Duration("wait", wait),
		)

		timer := s.clock.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Debug("recurrence scheduler stopped", zap.Error(context.Cause(ctx)))

			return
		case <-timer.C():
		}

		now := s.clock.Now()
		if now.Before(next) {
			continue
		}

		next = NextRun(now, s.loc)
		s.notify(s.RunOnce(ctx), next)
	}
}

func (s *Scheduler) notify(reset int, next time.Time) {
	if s.onPass != nil {
		s.onPass(reset, next)
	}
}

// String describes the scheduler for logs.
func (s *Scheduler) String() string {
	return fmt.Sprintf("schedule(loc=%s, maxWait=%s)", s.loc, s.maxWait)
}
