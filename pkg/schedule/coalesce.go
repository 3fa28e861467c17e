package schedule

import "sync"

// Coalescer is a single-flight dispatcher. Trigger moves it from idle to
// pending and schedules one run of the handler; triggers that arrive while
// pending are dropped. The handler runs after the coalescer is back to idle,
// so a trigger from inside the handler schedules a fresh run.
type Coalescer struct {
	mu       sync.Mutex
	pending  bool
	schedule func(func())
	handler  func()
}

// NewCoalescer returns an idle Coalescer that hands runs of handler to
// schedule, typically a Frames.RequestFrame.
func NewCoalescer(schedule func(func()), handler func()) *Coalescer {
	return &Coalescer{schedule: schedule, handler: handler}
}

// Trigger requests a run. It reports whether a new run was scheduled.
func (c *Coalescer) Trigger() bool {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return false
	}
	c.pending = true
	c.mu.Unlock()

	c.schedule(c.run)
	return true
}

// Pending reports whether a run is scheduled but has not started.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Coalescer) run() {
	c.mu.Lock()
	c.pending = false
	c.mu.Unlock()
	c.handler()
}
