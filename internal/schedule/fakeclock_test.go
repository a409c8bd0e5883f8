package schedule_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/calvinalkan/missions/internal/schedule"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer

	// armed receives the wait of every timer created.
	armed chan time.Duration
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, armed: make(chan time.Duration, 64)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) schedule.Timer {
	c.mu.Lock()

	t := &fakeTimer{clock: c, c: make(chan time.Time, 1), at: c.now.Add(d)}
	if d <= 0 {
		t.fire(c.now)
	} else {
		c.timers = append(c.timers, t)
	}

	c.mu.Unlock()

	c.armed <- d

	return t
}

// Set moves the clock to now and fires every timer that became due.
func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now

	pending := c.timers[:0]

	for _, t := range c.timers {
		if t.stopped {
			continue
		}

		if !t.at.After(now) {
			t.fire(now)

			continue
		}

		pending = append(pending, t)
	}

	c.timers = pending
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0

	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}

	return n
}

type fakeTimer struct {
	clock   *fakeClock
	c       chan time.Time
	at      time.Time
	stopped bool
	fired   bool
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.c
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	was := !t.stopped && !t.fired
	t.stopped = true

	return was
}

// fire requires clock.mu.
func (t *fakeTimer) fire(now time.Time) {
	t.fired = true
	t.c <- now
}

type fakeResetter struct {
	mu     sync.Mutex
	calls  int
	result int
	err    error
	panic  any

	passes chan int
}

func newFakeResetter() *fakeResetter {
	return &fakeResetter{passes: make(chan int, 64)}
}

func (r *fakeResetter) ResetRecurring(context.Context) (int, error) {
	r.mu.Lock()
	r.calls++
	calls, result, err, p := r.calls, r.result, r.err, r.panic
	r.mu.Unlock()

	r.passes <- calls

	if p != nil {
		panic(p)
	}

	return result, err
}

func (r *fakeResetter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

var errBoom = errors.New("boom")
