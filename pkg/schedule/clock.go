// Package schedule provides the timing primitives the tracker runs on: a
// Clock with cancellable delayed tasks, a frame queue standing in for
// animation-frame callbacks, and a single-flight Coalescer.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending delayed task.
type Timer interface {
	// Stop cancels the task. It reports whether the call prevented the task
	// from running.
	Stop() bool
}

// Clock tells time and runs delayed tasks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the wall clock. When Post is set, expired tasks are handed to it
// instead of running on the timer goroutine, so a host event loop can run
// them on its own goroutine.
type System struct {
	Post func(func())
}

// NewSystem returns a wall clock that routes expired tasks through post.
func NewSystem(post func(func())) *System {
	return &System{Post: post}
}

func (s *System) Now() time.Time { return time.Now() }

func (s *System) AfterFunc(d time.Duration, f func()) Timer {
	post := s.Post
	if post == nil {
		return time.AfterFunc(d, f)
	}
	t := &systemTimer{f: f}
	t.timer = time.AfterFunc(d, func() { post(t.run) })
	return t
}

// systemTimer guards a posted task, since a task already handed to the host
// loop can no longer be pulled back from the time.Timer.
type systemTimer struct {
	timer *time.Timer
	f     func()

	mu      sync.Mutex
	stopped bool
	ran     bool
}

func (t *systemTimer) run() {
	t.mu.Lock()
	if t.stopped || t.ran {
		t.mu.Unlock()
		return
	}
	t.ran = true
	t.mu.Unlock()
	t.f()
}

func (t *systemTimer) Stop() bool {
	t.timer.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.ran {
		return false
	}
	t.stopped = true
	return true
}

// Virtual is a manually advanced clock for tests. Tasks run synchronously
// inside Advance, in deadline order; ties run in scheduling order.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*virtualTimer
}

type virtualTimer struct {
	clock   *Virtual
	when    time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewVirtual returns a virtual clock reading start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{clock: v, when: v.now.Add(d), seq: v.seq, f: f}
	v.timers = append(v.timers, t)
	return t
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the number of tasks that have neither run nor been
// stopped.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, t := range v.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every task due on the way.
// Tasks scheduled by a running task fire too if they fall inside the window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		t := v.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	v.mu.Lock()
	v.now = target
	v.mu.Unlock()
}

// nextDue pops the earliest live task due by target and moves the clock to
// its deadline.
func (v *Virtual) nextDue(target time.Time) *virtualTimer {
	v.mu.Lock()
	defer v.mu.Unlock()

	live := v.timers[:0]
	for _, t := range v.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	v.timers = live
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].when.Equal(live[j].when) {
			return live[i].seq < live[j].seq
		}
		return live[i].when.Before(live[j].when)
	})
	t := live[0]
	if t.when.After(target) {
		return nil
	}
	t.fired = true
	if t.when.After(v.now) {
		v.now = t.when
	}
	return t
}
