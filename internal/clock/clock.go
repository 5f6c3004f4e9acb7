// Package clock abstracts the timers used for reconnect backoff, highlight
// expiry and toast expiry so they can be driven by hand in tests.
package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

var wall = clockwork.NewRealClock()

// Real is backed by the wall clock.
type Real struct{}

func (Real) Now() time.Time { return wall.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return wall.AfterFunc(d, f)
}

// Manual is a fake clock that only moves when Advance is called. Advance
// returns once every callback that came due has finished.
type Manual struct {
	fake *clockwork.FakeClock

	mu        sync.Mutex
	timers    []*manualTimer
	scheduled []time.Duration
}

type manualTimer struct {
	m       *Manual
	at      time.Time
	inner   clockwork.Timer
	done    chan struct{}
	stopped bool
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{fake: clockwork.NewFakeClockAt(start)}
}

func (m *Manual) Now() time.Time { return m.fake.Now() }

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{m: m, at: m.fake.Now().Add(d), done: make(chan struct{})}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers = append(m.timers, t)
	m.scheduled = append(m.scheduled, d)
	t.inner = m.fake.AfterFunc(d, func() {
		defer close(t.done)
		f()
	})
	return t
}

// Scheduled lists the delay of every AfterFunc call so far, in call order.
func (m *Manual) Scheduled() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.scheduled...)
}

// Pending counts timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if t.live() {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d one deadline at a time, so timers
// armed by a callback fire too when they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.fake.Now().Add(d)
	for {
		due := m.nextDue(target)
		if len(due) == 0 {
			break
		}
		m.fake.Advance(max(due[0].at.Sub(m.fake.Now()), 0))
		for _, t := range due {
			<-t.done
		}
	}
	if rest := target.Sub(m.fake.Now()); rest > 0 {
		m.fake.Advance(rest)
	}
}

// nextDue returns the live timers sharing the earliest deadline at or
// before target, and forgets timers that are finished.
func (m *Manual) nextDue(target time.Time) []*manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.timers[:0]
	for _, t := range m.timers {
		if t.live() {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(live, func(i, j int) bool { return live[i].at.Before(live[j].at) })

	var due []*manualTimer
	for _, t := range live {
		if t.at.After(target) || (len(due) > 0 && !t.at.Equal(due[0].at)) {
			break
		}
		due = append(due, t)
	}
	return due
}

// live reports whether t still waits to fire. Callers hold t.m.mu.
func (t *manualTimer) live() bool {
	if t.stopped {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	if !t.live() {
		t.m.mu.Unlock()
		return false
	}
	t.stopped = true
	inner := t.inner
	t.m.mu.Unlock()
	return inner.Stop()
}
