package schedule

import "sync"

// Frames schedules a callback for the next rendered frame.
type Frames interface {
	RequestFrame(f func())
}

// FrameQueue collects frame callbacks until the host flushes them, once per
// frame. Callbacks requested while a flush is running wait for the next
// frame.
type FrameQueue struct {
	mu      sync.Mutex
	pending []func()
	onFirst func()
}

// NewFrameQueue returns an empty queue. onFirst, if non-nil, is called when
// a request lands in an empty queue so the host can schedule a frame.
func NewFrameQueue(onFirst func()) *FrameQueue {
	return &FrameQueue{onFirst: onFirst}
}

// RequestFrame queues f for the next Flush.
func (q *FrameQueue) RequestFrame(f func()) {
	q.mu.Lock()
	first := len(q.pending) == 0
	q.pending = append(q.pending, f)
	notify := q.onFirst
	q.mu.Unlock()

	if first && notify != nil {
		notify()
	}
}

// Len returns the number of queued callbacks.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs the callbacks queued so far, in request order, and returns how
// many ran.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, f := range batch {
		f()
	}
	return len(batch)
}
