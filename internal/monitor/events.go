package monitor

import (
	"sync"
	"time"
)

// DefaultEventCapacity bounds retained events; the dashboard only needs
// recent history, so older records are dropped once the cap is reached.
const DefaultEventCapacity = 4096

// Event is one pipeline lifecycle transition. Records are never mutated
// after being appended.
type Event struct {
	Target    string
	Step      string
	Event     string
	Timestamp time.Time
	Elapsed   time.Duration
}

type stepKey struct {
	target string
	step   string
}

// EventLog is an append-only, capacity-bounded run event history. Safe for
// concurrent use.
type EventLog struct {
	mu       sync.Mutex
	capacity int
	records  []Event
	lastSeen map[stepKey]time.Time

	now func() time.Time
}

// NewEventLog returns an empty log retaining at most capacity records;
// capacity <= 0 selects DefaultEventCapacity.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &EventLog{
		capacity: capacity,
		lastSeen: make(map[stepKey]time.Time),
		now:      time.Now,
	}
}

// Append records an event at the current time. Elapsed is the time since
// the most recent prior event for the same (target, step) pair, or zero if
// this is the first.
func (l *EventLog) Append(target, step, event string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().UTC()
	key := stepKey{target: target, step: step}

	var elapsed time.Duration
	if prev, ok := l.lastSeen[key]; ok {
		elapsed = ts.Sub(prev)
	}
	l.lastSeen[key] = ts

	l.records = append(l.records, Event{
		Target:    target,
		Step:      step,
		Event:     event,
		Timestamp: ts,
		Elapsed:   elapsed,
	})
	if len(l.records) > l.capacity {
		l.records = append(l.records[:0:0], l.records[len(l.records)-l.capacity:]...)
	}
}

// Recent returns up to limit retained records, most-recent-last, matching
// arrival order. limit <= 0 returns the whole retained window. An untouched
// log yields an empty slice, never an error.
func (l *EventLog) Recent(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	copy(out, l.records[len(l.records)-n:])
	return out
}

// Len returns the number of retained records.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
