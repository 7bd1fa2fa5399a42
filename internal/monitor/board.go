// Package monitor holds the in-memory run state a pipeline publishes and a
// polling dashboard reads: per-relation progress counters, the run event
// log, and the run identifier. State is owned by the caller, not ambient,
// so concurrent runs (and tests) never interfere.
package monitor

import (
	"sync"

	"github.com/google/uuid"
)

// Progress is one relation's completion counter. A relation with no entry
// is "waiting" and is simply absent from snapshots.
type Progress struct {
	Name    string
	Current int
	Final   int
}

// Done reports whether the relation has processed all of its units.
func (p Progress) Done() bool {
	return p.Final > 0 && p.Current == p.Final
}

// Board tracks progress for all relations of a single run. Writers are
// per-relation pipeline workers; a polling reader takes snapshots. All
// methods are safe for concurrent use.
type Board struct {
	mu      sync.Mutex
	runID   string
	order   []string
	entries map[string]*Progress
}

// NewBoard returns an empty board with a fresh opaque run identifier.
func NewBoard() *Board {
	return &Board{
		runID:   uuid.New().String(),
		entries: make(map[string]*Progress),
	}
}

// RunID returns the identifier of the current run.
func (b *Board) RunID() string { return b.runID }

func (b *Board) entry(name string) *Progress {
	p, ok := b.entries[name]
	if !ok {
		p = &Progress{Name: name}
		b.entries[name] = p
		b.order = append(b.order, name)
	}
	return p
}

// SetFinal records the total unit count for a relation, creating its entry
// if needed. Once final is known, current never exceeds it.
func (b *Board) SetFinal(name string, final int) {
	if final < 0 {
		final = 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.entry(name)
	p.Final = final
	if final > 0 && p.Current > final {
		p.Current = final
	}
}

// Advance adds delta processed units to a relation, creating its entry with
// final 0 if none exists. Advancing past a known final clamps at final
// rather than failing: the monitoring signal stays available even when a
// worker over-reports.
func (b *Board) Advance(name string, delta int) {
	if delta <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.entry(name)
	p.Current += delta
	if p.Final > 0 && p.Current > p.Final {
		p.Current = p.Final
	}
}

// Snapshot returns a consistent point-in-time copy of all tracked
// relations in first-seen order. An empty board yields an empty slice.
func (b *Board) Snapshot() []Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Progress, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.entries[name])
	}
	return out
}

// AllDone reports whether every tracked relation is complete. A board with
// no entries is not done: nothing has started yet.
func (b *Board) AllDone() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.order) == 0 {
		return false
	}
	for _, p := range b.entries {
		if !p.Done() {
			return false
		}
	}
	return true
}
