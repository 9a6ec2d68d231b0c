package engine

import (
	"errors"
	"sort"

	"main/internal/schema"
)

var ErrQueueFrozen = errors.New("event queue frozen")

// Queue holds the run's input events. Producers add events before the run
// starts; the first drain freezes the queue and fixes the dispatch order:
// timestamp ascending, then kind priority, then insertion order.
type Queue struct {
	events []schema.Event
	seq    uint64
	frozen bool
}

// NewQueue allocates a queue sized for the expected event count.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{events: make([]schema.Event, 0, capacity)}
}

// Add enqueues an event, stamping its insertion sequence.
func (q *Queue) Add(e schema.Event) error {
	if q.frozen {
		return ErrQueueFrozen
	}
	q.seq++
	e.Seq = q.seq
	q.events = append(q.events, e)
	return nil
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}

// freeze sorts the events into dispatch order and rejects further adds.
func (q *Queue) freeze() {
	if q.frozen {
		return
	}
	q.frozen = true
	sort.Slice(q.events, func(i, j int) bool {
		a, b := q.events[i], q.events[j]
		if a.TsNs != b.TsNs {
			return a.TsNs < b.TsNs
		}
		if pa, pb := a.Kind.Priority(), b.Kind.Priority(); pa != pb {
			return pa < pb
		}
		return a.Seq < b.Seq
	})
}

// buckets walks the frozen queue grouped by timestamp. yield receives each
// bucket as a sub-slice; returning false stops the walk.
func (q *Queue) buckets(yield func(events []schema.Event) bool) {
	q.freeze()
	for start := 0; start < len(q.events); {
		end := start + 1
		for end < len(q.events) && q.events[end].TsNs == q.events[start].TsNs {
			end++
		}
		if !yield(q.events[start:end]) {
			return
		}
		start = end
	}
}
