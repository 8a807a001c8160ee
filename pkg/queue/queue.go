// Package queue implements the simulator's event-scheduling disciplines
// (spec §2 "Queue"): a plain FIFO and a priority queue. Basic never
// reorders. Priority keeps events of equal priority in arrival order, so
// events sharing a session key stay in order as long as its priority
// function gives them equal priority; it does not itself track sessions.
package queue

import (
	"container/heap"

	"github.com/routesim/netsim/pkg/event"
)

// Queue is the scheduling interface the kernel drives its event loop
// through. Implementations may reorder across sessions but must
// preserve per-session FIFO order (spec §2).
type Queue interface {
	Push(e event.Event)
	Pop() (event.Event, bool)
	Peek() (event.Event, bool)
	Len() int
	IsEmpty() bool
	Clear()
	// Snapshot returns every pending event in pop order, without
	// draining the queue. Used by pkg/persist to serialize in-flight
	// events under the persisted-state document's "queue" key.
	Snapshot() []event.Event
}

// Basic is a plain FIFO queue: global arrival order, no reordering.
type Basic struct {
	items []event.Event
}

// NewBasic creates an empty FIFO queue.
func NewBasic() *Basic { return &Basic{} }

func (q *Basic) Push(e event.Event) { q.items = append(q.items, e) }

func (q *Basic) Pop() (event.Event, bool) {
	if len(q.items) == 0 {
		var zero event.Event
		return zero, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

func (q *Basic) Peek() (event.Event, bool) {
	if len(q.items) == 0 {
		var zero event.Event
		return zero, false
	}
	return q.items[0], true
}

func (q *Basic) Len() int      { return len(q.items) }
func (q *Basic) IsEmpty() bool { return len(q.items) == 0 }
func (q *Basic) Clear()        { q.items = nil }

func (q *Basic) Snapshot() []event.Event {
	out := make([]event.Event, len(q.items))
	copy(out, q.items)
	return out
}

// Priority is a priority-ordered queue: events are popped by ascending
// Priority(e), with ties broken by arrival order (a monotonically
// increasing sequence number), so that two events in the same session
// which tie on priority never invert — FIFO is the tie-break, never the
// other way around.
type Priority struct {
	// PriorityFn assigns a priority; lower pops first. Nil means all
	// events have equal priority, degrading to pure FIFO.
	PriorityFn func(e event.Event) int

	h   priorityHeap
	seq int64
}

// NewPriority creates an empty priority queue using priorityFn (nil for
// equal-priority/FIFO-only behavior).
func NewPriority(priorityFn func(e event.Event) int) *Priority {
	p := &Priority{PriorityFn: priorityFn}
	heap.Init(&p.h)
	return p
}

type pqEntry struct {
	event    event.Event
	priority int
	seq      int64
}

type priorityHeap []pqEntry

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x interface{}) {
	*h = append(*h, x.(pqEntry))
}
func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

func (q *Priority) Push(e event.Event) {
	prio := 0
	if q.PriorityFn != nil {
		prio = q.PriorityFn(e)
	}
	heap.Push(&q.h, pqEntry{event: e, priority: prio, seq: q.seq})
	q.seq++
}

func (q *Priority) Pop() (event.Event, bool) {
	if q.h.Len() == 0 {
		var zero event.Event
		return zero, false
	}
	e := heap.Pop(&q.h).(pqEntry)
	return e.event, true
}

func (q *Priority) Peek() (event.Event, bool) {
	if q.h.Len() == 0 {
		var zero event.Event
		return zero, false
	}
	return q.h[0].event, true
}

func (q *Priority) Len() int      { return q.h.Len() }
func (q *Priority) IsEmpty() bool { return q.h.Len() == 0 }
func (q *Priority) Clear() {
	q.h = nil
	q.seq = 0
}

// Snapshot copies the heap and drains the copy, so the result is in
// true pop order without disturbing q.
func (q *Priority) Snapshot() []event.Event {
	cp := make(priorityHeap, len(q.h))
	copy(cp, q.h)
	out := make([]event.Event, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(pqEntry).event)
	}
	return out
}
