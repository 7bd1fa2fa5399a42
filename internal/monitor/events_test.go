package monitor

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fixedClock hands out timestamps advancing by step on every call.
type fixedClock struct {
	t    time.Time
	step time.Duration
}

func (c *fixedClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newTestLog(capacity int, step time.Duration) (*EventLog, *fixedClock) {
	clock := &fixedClock{
		t:    time.Date(2020, 4, 1, 12, 0, 0, 0, time.UTC),
		step: step,
	}
	l := NewEventLog(capacity)
	l.now = clock.now
	return l, clock
}

func TestEventLog_ElapsedPerTargetStep(t *testing.T) {
	l, _ := newTestLog(0, time.Second)

	l.Append("public.orders", "extract", "start")
	l.Append("public.users", "extract", "start")
	l.Append("public.orders", "extract", "finish")
	l.Append("public.orders", "copy", "start")

	recs := l.Recent(0)
	if len(recs) != 4 {
		t.Fatalf("len = %d, want 4", len(recs))
	}
	if recs[0].Elapsed != 0 || recs[1].Elapsed != 0 {
		t.Errorf("first events per pair must have zero elapsed: %v, %v", recs[0].Elapsed, recs[1].Elapsed)
	}
	// orders/extract saw its previous event two ticks earlier (users/extract
	// ran in between).
	if recs[2].Elapsed != 2*time.Second {
		t.Errorf("orders/extract elapsed = %v, want 2s", recs[2].Elapsed)
	}
	// A new step for the same target starts its own clock.
	if recs[3].Elapsed != 0 {
		t.Errorf("orders/copy elapsed = %v, want 0", recs[3].Elapsed)
	}
}

func TestEventLog_OrderMatchesAppend(t *testing.T) {
	l, _ := newTestLog(0, time.Millisecond)
	for i := 0; i < 10; i++ {
		l.Append("t", "extract", fmt.Sprintf("e%d", i))
	}
	recs := l.Recent(0)
	for i := 1; i < len(recs); i++ {
		if recs[i].Event != fmt.Sprintf("e%d", i) {
			t.Fatalf("arrival order broken at %d: %q", i, recs[i].Event)
		}
		if recs[i].Timestamp.Before(recs[i-1].Timestamp) {
			t.Fatalf("timestamps not non-decreasing at %d", i)
		}
	}
}

func TestEventLog_RecentLimit(t *testing.T) {
	l, _ := newTestLog(0, time.Second)
	for i := 0; i < 5; i++ {
		l.Append("t", "s", fmt.Sprintf("e%d", i))
	}
	recs := l.Recent(2)
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Event != "e3" || recs[1].Event != "e4" {
		t.Errorf("limit must keep the most recent records: %q, %q", recs[0].Event, recs[1].Event)
	}
}

func TestEventLog_CapDropsOldest(t *testing.T) {
	l, _ := newTestLog(3, time.Second)
	for i := 0; i < 7; i++ {
		l.Append("t", "s", fmt.Sprintf("e%d", i))
	}
	if l.Len() != 3 {
		t.Fatalf("retained = %d, want 3", l.Len())
	}
	recs := l.Recent(0)
	if recs[0].Event != "e4" || recs[2].Event != "e6" {
		t.Errorf("cap must drop oldest records: %q..%q", recs[0].Event, recs[2].Event)
	}
}

func TestEventLog_EmptyRecent(t *testing.T) {
	l := NewEventLog(0)
	if recs := l.Recent(10); len(recs) != 0 {
		t.Errorf("untouched log Recent = %v, want empty", recs)
	}
}

func TestEventLog_UTCTimestamps(t *testing.T) {
	l := NewEventLog(0)
	l.Append("t", "s", "start")
	ts := l.Recent(1)[0].Timestamp
	if ts.Location() != time.UTC {
		t.Errorf("timestamp location = %v, want UTC", ts.Location())
	}
}

func TestEventLog_ConcurrentAppend(t *testing.T) {
	l := NewEventLog(0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			target := fmt.Sprintf("t%d", w)
			for i := 0; i < 50; i++ {
				l.Append(target, "extract", "tick")
				_ = l.Recent(10)
			}
		}(w)
	}
	wg.Wait()
	if l.Len() != 400 {
		t.Errorf("retained = %d, want 400", l.Len())
	}
}
