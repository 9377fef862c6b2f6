package a2a

import "sync"

// EventQueue collects the task events an executor produces while handling one
// request. The server drains it after Execute returns; the last event is the
// task reported to the caller.
type EventQueue struct {
	mu     sync.Mutex
	events []*Task
}

// Enqueue appends one task event.
func (q *EventQueue) Enqueue(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, t)
}

// Events returns a snapshot of the enqueued events in order.
func (q *EventQueue) Events() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Task, len(q.events))
	copy(out, q.events)
	return out
}
