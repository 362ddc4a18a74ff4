package view

import "sync"

// Immediate renders a view as soon as it is scheduled.
type Immediate struct{}

// Schedule renders v synchronously.
func (Immediate) Schedule(v *Instance) {
	v.Render()
}

// Queue collects dirty views until Flush, the way a UI event loop renders
// once per tick.
type Queue struct {
	mu      sync.Mutex
	pending []*Instance
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule queues v for the next Flush.
func (q *Queue) Schedule(v *Instance) {
	q.mu.Lock()
	q.pending = append(q.pending, v)
	q.mu.Unlock()
}

// Len returns the number of queued views.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush renders every queued view that is still dirty and mounted, and
// returns how many rendered. Views scheduled during Flush are rendered in
// the same call.
func (q *Queue) Flush() int {
	rendered := 0
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			return rendered
		}
		for _, v := range batch {
			if v.IsUnmounted() || !v.Dirty() {
				continue
			}
			v.Render()
			rendered++
		}
	}
}
