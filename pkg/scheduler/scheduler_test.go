package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualFiresInDueOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(time.Second, func() { order = append(order, "a") })

	m.Advance(500 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("nothing should fire yet, got %v", order)
	}
	m.Advance(2 * time.Second)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order %v", order)
	}
	if m.Now() != 2500*time.Millisecond {
		t.Fatalf("unexpected clock %v", m.Now())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual()
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("first stop should succeed")
	}
	if timer.Stop() {
		t.Fatalf("second stop should report false")
	}
	m.RunAll()
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending timers")
	}
}

func TestManualRunAllFollowsChains(t *testing.T) {
	m := NewManual()
	count := 0
	var step func()
	step = func() {
		count++
		if count < 3 {
			m.AfterFunc(2*time.Second, step)
		}
	}
	m.AfterFunc(time.Second, step)
	m.RunAll()

	if count != 3 {
		t.Fatalf("expected 3 runs, got %d", count)
	}
	delays := m.Delays()
	if len(delays) != 3 || delays[0] != time.Second || delays[1] != 2*time.Second || delays[2] != 2*time.Second {
		t.Fatalf("unexpected delays %v", delays)
	}
	if m.Now() != 5*time.Second {
		t.Fatalf("unexpected clock %v", m.Now())
	}
}

func TestRealSchedulerRuns(t *testing.T) {
	var fired atomic.Bool
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() {
		fired.Store(true)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("real scheduler did not fire")
	}
	if !fired.Load() {
		t.Fatalf("expected fired")
	}
}
