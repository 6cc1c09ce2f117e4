package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running; it reports whether it did so.
	Stop() bool
}

// Scheduler runs functions after a delay without blocking the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

// Real schedules on the runtime timer wheel.
func Real() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Manual is a deterministic Scheduler driven by Advance. Scheduled calls run
// on the goroutine that calls Advance.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
	delays  []time.Duration
}

type manualTimer struct {
	owner   *Manual
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewManual returns a Manual scheduler at offset zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, due: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	m.delays = append(m.delays, d)
	return t
}

// Advance moves the clock forward by d and runs every call that became due,
// in due order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		next.fired = true
		m.mu.Unlock()
		next.fn()
	}
}

// RunAll fires pending calls until none remain, including calls scheduled by
// the calls it runs.
func (m *Manual) RunAll() {
	for {
		m.mu.Lock()
		next := m.nextDue(-1)
		if next == nil {
			m.mu.Unlock()
			return
		}
		if next.due > m.now {
			m.now = next.due
		}
		next.fired = true
		m.mu.Unlock()
		next.fn()
	}
}

// Delays returns every delay ever requested, in request order.
func (m *Manual) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.delays))
	copy(out, m.delays)
	return out
}

// Pending returns the number of calls that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.pending {
		if !t.fired && !t.stopped {
			count++
		}
	}
	return count
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// nextDue pops the earliest live timer due at or before limit; a negative
// limit means no limit. Callers hold m.mu.
func (m *Manual) nextDue(limit time.Duration) *manualTimer {
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	m.pending = live
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].due == live[j].due {
			return live[i].seq < live[j].seq
		}
		return live[i].due < live[j].due
	})
	if limit >= 0 && live[0].due > limit {
		return nil
	}
	return live[0]
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
